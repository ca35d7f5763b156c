package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"growth_tools/video-editor/models"
	"growth_tools/video-editor/utils"
)

// SlideshowBuilder turns still images into a fixed-pace slideshow
type SlideshowBuilder struct {
	config    models.SlideshowConfig
	assembler *Assembler
}

func NewSlideshowBuilder(config models.SlideshowConfig, assembler *Assembler) *SlideshowBuilder {
	return &SlideshowBuilder{config: config, assembler: assembler}
}

// Build shows every image for SlideSeconds, in order, and writes the result
// to outputPath. The concat list is written to workDir.
func (b *SlideshowBuilder) Build(ctx context.Context, images []string, workDir, outputPath string) error {
	if len(images) == 0 {
		return errors.New("slideshow needs at least one image")
	}

	listFile := filepath.Join(workDir, "input.txt")
	if err := utils.CreateConcatFile(images, b.config.SlideSeconds, listFile); err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}

	kwargs := b.assembler.videoArgs()
	kwargs["vf"] = letterbox(b.config.Width, b.config.Height)
	kwargs["pix_fmt"] = "yuv420p"

	args := ffmpeg.Input(listFile, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outputPath, kwargs).
		OverWriteOutput().
		GetArgs()

	slog.Info("Encoding slideshow", "slides", len(images), "seconds_per_slide", b.config.SlideSeconds)
	if err := b.assembler.run(ctx, "slideshow", args); err != nil {
		return fmt.Errorf("failed to encode slideshow: %w", err)
	}
	return nil
}
