package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"growth_tools/api"
	"growth_tools/video-editor/engine"
	"growth_tools/video-editor/models"
)

var (
	mockupInput  string
	mockupOutput string
	mockupConfig string
)

var mockupCmd = &cobra.Command{
	Use:   "mockup",
	Short: "Render a chat mockup video from a conversation file",
	Long: `Render a chat mockup video offline with the same engine as POST /whatsapp.

The input file uses the request body format:
  {"bot_name": "Mystic Maya", "messages": [{"role": "user", "text": "Hello!"}]}

Examples:
  growth-tools mockup --input conv.json --output out.mp4
  growth-tools mockup --input conv.json --output out.mp4 --config style.yaml`,
	RunE: runMockup,
}

func init() {
	mockupCmd.Flags().StringVarP(&mockupInput, "input", "i", "", "Conversation JSON file")
	mockupCmd.Flags().StringVarP(&mockupOutput, "output", "o", "", "Output mp4 path")
	mockupCmd.Flags().StringVarP(&mockupConfig, "config", "c", "", "Video style config (JSON or YAML), defaults to VIDEO_CONFIG")
	_ = mockupCmd.MarkFlagRequired("input")
	_ = mockupCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(mockupCmd)
}

func runMockup(cmd *cobra.Command, args []string) error {
	conv, err := readConversation(mockupInput)
	if err != nil {
		return err
	}

	configPath := mockupConfig
	if configPath == "" {
		configPath = appConfig.VideoConfig
	}
	videoCfg, err := loadVideoConfig(configPath)
	if err != nil {
		return err
	}

	generator := newMockupGenerator(videoCfg, appConfig.FFmpegPath)
	result, err := generator.Generate(cmd.Context(), conv, mockupOutput)
	if err != nil {
		return err
	}

	slog.Info("Mockup written",
		"output", mockupOutput,
		"frames", result.Frames,
		"duration", result.Duration,
		"silent_fallback", result.SilentFallback,
	)
	return nil
}

func newMockupGenerator(videoCfg *models.VideoConfig, ffmpegPath string) *engine.Generator {
	assembler := engine.NewAssembler(engine.ExecRunner{}, ffmpegPath, videoCfg.Settings)
	return engine.NewGenerator(videoCfg, assembler)
}

func readConversation(path string) (engine.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Conversation{}, fmt.Errorf("failed to read conversation: %w", err)
	}

	var req api.WhatsappRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return engine.Conversation{}, fmt.Errorf("failed to parse conversation %s: %w", path, err)
	}
	return api.ToConversation(req)
}
