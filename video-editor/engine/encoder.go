package engine

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// videoArgs returns a fresh copy of the encoder kwargs
func (a *Assembler) videoArgs() ffmpeg.KwArgs {
	a.encoderOnce.Do(func() {
		a.codec, a.codecArgs = a.getEncoderSettings()
	})

	kwargs := ffmpeg.KwArgs{"c:v": a.codec}
	for k, v := range a.codecArgs {
		kwargs[k] = v
	}
	return kwargs
}

func (a *Assembler) getEncoderSettings() (string, ffmpeg.KwArgs) {
	if a.settings.UseGPU {
		if a.isEncoderAvailable("h264_nvenc") {
			slog.Info("Using NVIDIA encoder", "device", a.settings.GPUDevice)
			return a.getNVIDIAEncoderSettings()
		}
		slog.Warn("GPU encoding requested but h264_nvenc is not available, falling back to CPU")
	}
	return a.getCPUEncoderSettings()
}

func (a *Assembler) getCPUEncoderSettings() (string, ffmpeg.KwArgs) {
	return "libx264", ffmpeg.KwArgs{
		"preset": a.settings.Preset,
		"crf":    strconv.Itoa(a.settings.CRF),
	}
}

func (a *Assembler) getNVIDIAEncoderSettings() (string, ffmpeg.KwArgs) {
	return "h264_nvenc", ffmpeg.KwArgs{
		"preset": "p4",
		"cq":     strconv.Itoa(a.settings.CRF),
		"gpu":    a.settings.GPUDevice,
	}
}

// isEncoderAvailable encodes one second of test pattern with the encoder
func (a *Assembler) isEncoderAvailable(encoder string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := a.runner.Run(ctx, a.binary, "-hide_banner", "-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=1",
		"-t", "1", "-c:v", encoder, "-f", "null", "-")
	if err != nil {
		slog.Info("Encoder test failed", "encoder", encoder, "error", err)
		return false
	}
	return true
}
