package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"growth_tools/video-editor/models"
)

// ErrNoFrames is returned when the configured timing yields an empty video
var ErrNoFrames = errors.New("timeline produced no frames")

// Generator renders chat mockup videos. It is safe for concurrent use:
// every run builds its own renderer and scratch directory.
type Generator struct {
	config    *models.VideoConfig
	assembler *Assembler
	now       func() time.Time
}

// NewGenerator creates a mockup generator
func NewGenerator(config *models.VideoConfig, assembler *Assembler) *Generator {
	return &Generator{config: config, assembler: assembler, now: time.Now}
}

// Result summarizes a finished run
type Result struct {
	Frames         int
	Duration       float64
	Cues           []AudioCue
	SilentFallback bool
}

// Generate renders conv into an mp4 at outputPath
func (g *Generator) Generate(ctx context.Context, conv Conversation, outputPath string) (*Result, error) {
	if len(conv.Messages) == 0 {
		return nil, errors.New("conversation has no messages")
	}
	mockup := g.config.Mockup

	tl := BuildTimeline(conv.Messages, Timing{
		FrameRate: g.config.Settings.FPS,
		Typing:    mockup.Timing.TypingSeconds,
		Reveal:    mockup.Timing.RevealSeconds,
		Pause:     mockup.Timing.PauseSeconds,
	})
	if tl.TotalFrames == 0 {
		return nil, ErrNoFrames
	}

	workDir, err := os.MkdirTemp("", "mockup-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	slog.Info("Generating chat mockup", "messages", len(conv.Messages), "frames", tl.TotalFrames, "duration", tl.Duration())

	renderer, err := NewRenderer(mockup, conv.BotName, g.now().Format("15:04"))
	if err != nil {
		return nil, err
	}

	if err := writeFrames(ctx, renderer, conv.Messages, tl, workDir); err != nil {
		return nil, err
	}

	cueTones, err := g.writeCueTones(tl.Cues, workDir)
	if err != nil {
		return nil, err
	}

	assembled, err := g.assembler.Assemble(ctx, AssembleInput{
		WorkDir:      workDir,
		FramePattern: filepath.Join(workDir, "frame_%06d.png"),
		FrameRate:    tl.FrameRate,
		Output:       mockup.Output,
		Duration:     tl.Duration(),
		SampleRate:   mockup.Tones.SampleRate,
		Cues:         tl.Cues,
		CueTones:     cueTones,
		OutputPath:   outputPath,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Chat mockup created", "output", outputPath, "silent_fallback", assembled.SilentFallback)
	return &Result{
		Frames:         tl.TotalFrames,
		Duration:       tl.Duration(),
		Cues:           tl.Cues,
		SilentFallback: assembled.SilentFallback,
	}, nil
}

// writeFrames writes frame_%06d.png for every frame request. Frames within
// a phase are identical, so each phase is rendered and encoded once.
func writeFrames(ctx context.Context, r *Renderer, messages []Message, tl Timeline, dir string) error {
	var (
		history []RevealedMessage
		current []byte
		last    FrameRequest
	)

	for _, f := range tl.Frames() {
		if err := ctx.Err(); err != nil {
			return err
		}

		for len(history) < f.Revealed {
			history = append(history, r.Layout().Reveal(messages[len(history)]))
		}

		sameGroup := current != nil && f.Kind == last.Kind && f.Message == last.Message
		freeze := current != nil && f.Freeze && last.Kind == PhaseReveal && last.Message == f.Message
		if !sameGroup && !freeze {
			var active Active
			switch f.Kind {
			case PhaseTyping:
				active.Typing = true
			case PhaseReveal:
				m := r.Layout().Reveal(messages[f.Message])
				active.Message = &m
			}

			img := r.Render(history[:f.Revealed], active)
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return fmt.Errorf("failed to encode frame %d: %w", f.Index, err)
			}
			current = buf.Bytes()
		}
		last = f

		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", f.Index))
		if err := os.WriteFile(path, current, 0644); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", f.Index, err)
		}
	}
	return nil
}

// writeCueTones writes one tone file per cue so every ffmpeg input is
// distinct.
func (g *Generator) writeCueTones(cues []AudioCue, dir string) ([]string, error) {
	paths := make([]string, len(cues))
	for i, cue := range cues {
		paths[i] = filepath.Join(dir, fmt.Sprintf("%s_%03d.wav", cue.Tone, i))
		if err := WriteTone(paths[i], g.toneParams(cue.Tone)); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func (g *Generator) toneParams(tone Tone) ToneParams {
	t := g.config.Mockup.Tones
	if tone == ToneSend {
		return ToneParams{Frequency: t.SendFrequency, Seconds: t.SendSeconds, SampleRate: t.SampleRate}
	}
	return ToneParams{Frequency: t.ReceiveFrequency, Seconds: t.ReceiveSeconds, SampleRate: t.SampleRate}
}
