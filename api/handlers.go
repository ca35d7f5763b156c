package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"growth_tools/video-editor/engine"
	"growth_tools/video-editor/utils"
)

const maxSlides = 10

type slideshowRequest struct {
	Slides []string `json:"slides"`
}

// MessageRequest is one chat message as sent by clients
type MessageRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// WhatsappRequest is the body of POST /whatsapp and the format of
// conversation files read by the mockup command
type WhatsappRequest struct {
	Messages []MessageRequest `json:"messages"`
	BotName  string           `json:"bot_name"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status              string   `json:"status"`
	ReplicateConfigured bool     `json:"replicate_configured"`
	EndpointsActive     []string `json:"endpoints_active"`
	FFmpegAvailable     bool     `json:"ffmpeg_available"`
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Growth Tools API",
		"version":     s.deps.Version,
		"description": "Simple API for WhatsApp mockups and AI slideshows",
		"endpoints": gin.H{
			"slideshow": "POST /slideshow - Generate slideshow from text prompts",
			"whatsapp":  "POST /whatsapp - Generate WhatsApp mockup video",
			"health":    "GET /health - Health check",
		},
		"examples": gin.H{
			"slideshow": gin.H{
				"url":     "POST /slideshow",
				"body":    slideshowRequest{Slides: []string{"sunset over mountains", "peaceful lake"}},
				"returns": "MP4 video file",
			},
			"whatsapp": gin.H{
				"url": "POST /whatsapp",
				"body": WhatsappRequest{
					Messages: []MessageRequest{
						{Role: "user", Text: "Hello!"},
						{Role: "bot", Text: "Hi there!"},
					},
					BotName: "Mystic Maya",
				},
				"returns": "MP4 video file",
			},
		},
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:              "OK",
		ReplicateConfigured: s.deps.Images != nil,
		EndpointsActive:     []string{"slideshow", "whatsapp"},
		FFmpegAvailable:     utils.ValidateFFmpegInstalled(s.deps.FFmpegPath) == nil,
	})
}

func (s *Server) slideshow(c *gin.Context) {
	var req slideshowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validationError("Please provide slides array"))
		return
	}
	if err := validateSlides(req.Slides); err != nil {
		respondError(c, err)
		return
	}
	if s.deps.Images == nil {
		respondError(c, configurationError("Replicate API not configured"))
		return
	}

	outputPath := s.outputPath("slideshow")
	slog.Info("Generating slideshow", "slides", len(req.Slides))

	if err := s.buildSlideshow(c, req.Slides, outputPath); err != nil {
		respondError(c, err)
		return
	}

	slog.Info("Slideshow created", "output", outputPath)
	c.FileAttachment(outputPath, filepath.Base(outputPath))
}

func validateSlides(slides []string) error {
	if len(slides) == 0 {
		return validationError("Please provide slides array")
	}
	if len(slides) > maxSlides {
		return validationError(fmt.Sprintf("Maximum %d slides allowed", maxSlides))
	}
	for i, prompt := range slides {
		if strings.TrimSpace(prompt) == "" {
			return validationError(fmt.Sprintf("slide %d has an empty prompt", i+1))
		}
	}
	return nil
}

// buildSlideshow generates and downloads the images one after another,
// then encodes them.
func (s *Server) buildSlideshow(c *gin.Context, slides []string, outputPath string) error {
	ctx := c.Request.Context()

	workDir, err := os.MkdirTemp("", "slideshow-*")
	if err != nil {
		return downstreamError("failed to create scratch directory", err)
	}
	defer os.RemoveAll(workDir)

	images := make([]string, 0, len(slides))
	for i, prompt := range slides {
		slog.Info("Creating image", "index", i+1, "prompt", prompt)
		url, err := s.deps.Images.Generate(ctx, prompt)
		if err != nil {
			return downstreamError(fmt.Sprintf("image generation failed for slide %d", i+1), err)
		}
		path := filepath.Join(workDir, fmt.Sprintf("slide_%d.jpg", i))
		if err := s.deps.Images.Download(ctx, url, path); err != nil {
			return downstreamError(fmt.Sprintf("image download failed for slide %d", i+1), err)
		}
		images = append(images, path)
	}

	if err := s.deps.Slideshows.Build(ctx, images, workDir, outputPath); err != nil {
		return downstreamError("slideshow encoding failed", err)
	}
	return nil
}

func (s *Server) whatsapp(c *gin.Context) {
	var req WhatsappRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, validationError("Please provide messages array"))
		return
	}

	conv, err := ToConversation(req)
	if err != nil {
		respondError(c, err)
		return
	}

	outputPath := s.outputPath("whatsapp")
	slog.Info("Creating WhatsApp mockup", "messages", len(conv.Messages))

	if _, err := s.deps.Mockups.Generate(c.Request.Context(), conv, outputPath); err != nil {
		if errors.Is(err, engine.ErrNoFrames) {
			respondError(c, configurationError("video timing produces no frames"))
			return
		}
		respondError(c, downstreamError("mockup generation failed", err))
		return
	}

	c.FileAttachment(outputPath, filepath.Base(outputPath))
}

// ToConversation validates req. A missing role means user and a missing
// bot name means "Bot".
func ToConversation(req WhatsappRequest) (engine.Conversation, error) {
	if len(req.Messages) == 0 {
		return engine.Conversation{}, validationError("Please provide messages array")
	}

	conv := engine.Conversation{
		BotName:  req.BotName,
		Messages: make([]engine.Message, 0, len(req.Messages)),
	}
	if strings.TrimSpace(conv.BotName) == "" {
		conv.BotName = "Bot"
	}
	for i, m := range req.Messages {
		role, err := engine.ParseRole(m.Role)
		if err != nil {
			return engine.Conversation{}, validationError(fmt.Sprintf("message %d: %v", i+1, err))
		}
		conv.Messages = append(conv.Messages, engine.Message{Role: role, Text: m.Text})
	}
	return conv, nil
}

// outputPath names a new output file <kind>_<first 8 chars of a UUIDv4>.mp4
func (s *Server) outputPath(kind string) string {
	id := uuid.New().String()[:8]
	return filepath.Join(s.deps.OutputDir, fmt.Sprintf("%s_%s.mp4", kind, id))
}
