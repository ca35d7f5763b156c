package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"growth_tools/video-editor/models"
)

// Runner executes an external command to completion
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s error: %v, output: %s", name, err, lastLines(string(output), 20))
	}
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Assembler turns frames and tone clips into the final video with ffmpeg
type Assembler struct {
	runner   Runner
	binary   string
	settings models.Settings

	encoderOnce sync.Once
	codec       string
	codecArgs   ffmpeg.KwArgs
}

// NewAssembler creates an assembler that invokes binary through runner
func NewAssembler(runner Runner, binary string, settings models.Settings) *Assembler {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Assembler{runner: runner, binary: binary, settings: settings}
}

// AssembleInput is everything needed to produce one mockup video
type AssembleInput struct {
	WorkDir      string
	FramePattern string
	FrameRate    int
	Output       models.Canvas
	Duration     float64
	SampleRate   int
	Cues         []AudioCue
	CueTones     []string // one tone file per cue
	OutputPath   string
}

// AssembleResult reports how the audio track was produced
type AssembleResult struct {
	SilentFallback bool
}

// Assemble encodes the frames, mixes the cue tones over a silent bed and
// muxes both. A failed mix falls back to the silent bed.
func (a *Assembler) Assemble(ctx context.Context, in AssembleInput) (AssembleResult, error) {
	var result AssembleResult
	if len(in.Cues) != len(in.CueTones) {
		return result, fmt.Errorf("got %d cues but %d tone files", len(in.Cues), len(in.CueTones))
	}

	videoOnly := filepath.Join(in.WorkDir, "video_only.mp4")
	if err := a.EncodeFrames(ctx, in.FramePattern, in.FrameRate, in.Output, videoOnly); err != nil {
		return result, err
	}

	silent := filepath.Join(in.WorkDir, "silent.wav")
	if err := a.SilentTrack(ctx, in.Duration+1, in.SampleRate, silent); err != nil {
		return result, err
	}

	audio := silent
	if len(in.Cues) > 0 {
		mixed := filepath.Join(in.WorkDir, "final_audio.wav")
		if err := a.MixCues(ctx, silent, in.Cues, in.CueTones, mixed); err != nil {
			slog.Warn("Audio mix failed, using silent track", "error", err)
			result.SilentFallback = true
		} else {
			audio = mixed
		}
	}

	if err := a.Mux(ctx, videoOnly, audio, in.OutputPath); err != nil {
		return result, err
	}
	return result, nil
}

// EncodeFrames encodes a numbered PNG sequence, letterboxed to size
func (a *Assembler) EncodeFrames(ctx context.Context, pattern string, frameRate int, size models.Canvas, outputPath string) error {
	kwargs := a.videoArgs()
	kwargs["vf"] = letterbox(size.Width, size.Height)
	kwargs["pix_fmt"] = "yuv420p"

	args := ffmpeg.Input(pattern, ffmpeg.KwArgs{"framerate": frameRate}).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs()
	if err := a.run(ctx, "encode frames", args); err != nil {
		return fmt.Errorf("failed to encode frames: %w", err)
	}
	return nil
}

// SilentTrack writes a mono silent WAV of the given length
func (a *Assembler) SilentTrack(ctx context.Context, seconds float64, sampleRate int, outputPath string) error {
	args := ffmpeg.Input(fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRate), ffmpeg.KwArgs{"f": "lavfi"}).
		Output(outputPath, ffmpeg.KwArgs{"t": fmt.Sprintf("%.3f", seconds)}).
		OverWriteOutput().
		GetArgs()
	if err := a.run(ctx, "silent track", args); err != nil {
		return fmt.Errorf("failed to create silent track: %w", err)
	}
	return nil
}

// MixCues delays each tone to its cue offset and mixes it over base.
// The mix keeps the length of base.
func (a *Assembler) MixCues(ctx context.Context, base string, cues []AudioCue, tones []string, outputPath string) error {
	streams := []*ffmpeg.Stream{ffmpeg.Input(base).Audio()}
	for i, cue := range cues {
		ms := delayMillis(cue.Offset)
		delayed := ffmpeg.Input(tones[i]).Audio().
			Filter("adelay", ffmpeg.Args{fmt.Sprintf("%d|%d", ms, ms)})
		streams = append(streams, delayed)
	}

	args := ffmpeg.Filter(streams, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{"inputs": len(streams), "duration": "first"}).
		Output(outputPath).
		OverWriteOutput().
		GetArgs()
	if err := a.run(ctx, "mix audio", args); err != nil {
		return fmt.Errorf("failed to mix audio: %w", err)
	}
	return nil
}

// Mux copies the video stream and encodes audio to AAC, cut to the
// shorter of the two.
func (a *Assembler) Mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	video := ffmpeg.Input(videoPath).Video()
	audio := ffmpeg.Input(audioPath).Audio()

	args := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outputPath, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      "aac",
		"shortest": "",
	}).OverWriteOutput().GetArgs()
	if err := a.run(ctx, "mux", args); err != nil {
		return fmt.Errorf("failed to combine video and audio: %w", err)
	}
	return nil
}

func (a *Assembler) run(ctx context.Context, step string, args []string) error {
	slog.Debug("Executing FFmpeg command", "step", step, "command", a.binary+" "+strings.Join(args, " "))
	return a.runner.Run(ctx, a.binary, args...)
}

// letterbox scales into w x h keeping aspect ratio and pads the rest
func letterbox(w, h int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h, w, h)
}

func delayMillis(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
