package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// VideoConfig represents the complete rendering configuration
type VideoConfig struct {
	Settings  Settings        `json:"settings,omitempty" yaml:"settings,omitempty"`
	Mockup    MockupConfig    `json:"mockup,omitempty" yaml:"mockup,omitempty"`
	Slideshow SlideshowConfig `json:"slideshow,omitempty" yaml:"slideshow,omitempty"`
}

// Settings contains global encoder settings
type Settings struct {
	FPS       int    `json:"fps,omitempty" yaml:"fps,omitempty"`
	Preset    string `json:"preset,omitempty" yaml:"preset,omitempty"`
	CRF       int    `json:"crf,omitempty" yaml:"crf,omitempty"`
	UseGPU    bool   `json:"use_gpu" yaml:"use_gpu"`
	GPUDevice string `json:"gpu_device" yaml:"gpu_device"`
}

// MockupConfig describes how a chat conversation is drawn and timed
type MockupConfig struct {
	Canvas Canvas `json:"canvas,omitempty" yaml:"canvas,omitempty"`
	Output Canvas `json:"output,omitempty" yaml:"output,omitempty"` // letterboxed encode size
	Timing Timing `json:"timing,omitempty" yaml:"timing,omitempty"`
	Layout Layout `json:"layout,omitempty" yaml:"layout,omitempty"`
	Theme  Theme  `json:"theme,omitempty" yaml:"theme,omitempty"`
	Fonts  Fonts  `json:"fonts,omitempty" yaml:"fonts,omitempty"`
	Tones  Tones  `json:"tones,omitempty" yaml:"tones,omitempty"`
}

type Canvas struct {
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// Timing holds phase durations in seconds. Values under one frame yield
// zero frames for that phase.
type Timing struct {
	TypingSeconds float64 `json:"typing_seconds,omitempty" yaml:"typing_seconds,omitempty"`
	RevealSeconds float64 `json:"reveal_seconds,omitempty" yaml:"reveal_seconds,omitempty"`
	PauseSeconds  float64 `json:"pause_seconds,omitempty" yaml:"pause_seconds,omitempty"`
}

// Layout holds bubble geometry in pixels
type Layout struct {
	HeaderHeight    int  `json:"header_height,omitempty" yaml:"header_height,omitempty"`
	ContentTop      int  `json:"content_top,omitempty" yaml:"content_top,omitempty"`
	Gutter          int  `json:"gutter,omitempty" yaml:"gutter,omitempty"`
	SideMargin      int  `json:"side_margin,omitempty" yaml:"side_margin,omitempty"`
	MaxBubbleWidth  int  `json:"max_bubble_width,omitempty" yaml:"max_bubble_width,omitempty"`
	Padding         int  `json:"padding,omitempty" yaml:"padding,omitempty"`
	LineHeight      int  `json:"line_height,omitempty" yaml:"line_height,omitempty"`
	TimestampHeight int  `json:"timestamp_height,omitempty" yaml:"timestamp_height,omitempty"`
	CornerRadius    int  `json:"corner_radius,omitempty" yaml:"corner_radius,omitempty"`
	HideTimestamps  bool `json:"hide_timestamps" yaml:"hide_timestamps"`
}

// Theme colors are "#rrggbb" strings
type Theme struct {
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Header     string `json:"header,omitempty" yaml:"header,omitempty"`
	Avatar     string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	UserBubble string `json:"user_bubble,omitempty" yaml:"user_bubble,omitempty"`
	BotBubble  string `json:"bot_bubble,omitempty" yaml:"bot_bubble,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	Time       string `json:"time,omitempty" yaml:"time,omitempty"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
}

type Fonts struct {
	HeaderSize  float64 `json:"header_size,omitempty" yaml:"header_size,omitempty"`
	MessageSize float64 `json:"message_size,omitempty" yaml:"message_size,omitempty"`
	TimeSize    float64 `json:"time_size,omitempty" yaml:"time_size,omitempty"`
}

// Tones describes the send/receive notification beeps
type Tones struct {
	SampleRate       int     `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	SendFrequency    float64 `json:"send_frequency,omitempty" yaml:"send_frequency,omitempty"`
	SendSeconds      float64 `json:"send_seconds,omitempty" yaml:"send_seconds,omitempty"`
	ReceiveFrequency float64 `json:"receive_frequency,omitempty" yaml:"receive_frequency,omitempty"`
	ReceiveSeconds   float64 `json:"receive_seconds,omitempty" yaml:"receive_seconds,omitempty"`
}

// SlideshowConfig controls the image slideshow encode
type SlideshowConfig struct {
	Width        int     `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int     `json:"height,omitempty" yaml:"height,omitempty"`
	SlideSeconds float64 `json:"slide_seconds,omitempty" yaml:"slide_seconds,omitempty"`
}

// Example style.yaml:
/*
settings:
  fps: 30
mockup:
  timing:
    typing_seconds: 1.5
  theme:
    user_bubble: "#005f73"
slideshow:
  slide_seconds: 4
*/

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *VideoConfig {
	config := &VideoConfig{}
	config.applyDefaults()
	return config
}

// LoadConfig loads the rendering configuration from a JSON or YAML file
func LoadConfig(configPath string) (*VideoConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config VideoConfig
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that defaults cannot repair
func (c *VideoConfig) Validate() error {
	colors := map[string]string{
		"background":  c.Mockup.Theme.Background,
		"header":      c.Mockup.Theme.Header,
		"avatar":      c.Mockup.Theme.Avatar,
		"user_bubble": c.Mockup.Theme.UserBubble,
		"bot_bubble":  c.Mockup.Theme.BotBubble,
		"text":        c.Mockup.Theme.Text,
		"time":        c.Mockup.Theme.Time,
		"status":      c.Mockup.Theme.Status,
	}
	for name, value := range colors {
		if !hexColorPattern.MatchString(value) {
			return fmt.Errorf("theme.%s must be a #rrggbb color, got %q", name, value)
		}
	}

	l := c.Mockup.Layout
	if l.MaxBubbleWidth <= 2*l.Padding {
		return fmt.Errorf("layout.max_bubble_width (%d) must exceed twice the padding (%d)", l.MaxBubbleWidth, l.Padding)
	}
	return nil
}

func (c *VideoConfig) applyDefaults() {
	s := &c.Settings
	if s.FPS <= 0 {
		s.FPS = 30
	}
	if s.Preset == "" {
		s.Preset = "fast"
	}
	if s.CRF <= 0 {
		s.CRF = 23
	}
	if s.GPUDevice == "" {
		s.GPUDevice = "0"
	}

	m := &c.Mockup
	if m.Canvas.Width <= 0 {
		m.Canvas.Width = 376
	}
	if m.Canvas.Height <= 0 {
		m.Canvas.Height = 812
	}
	if m.Output.Width <= 0 {
		m.Output.Width = 1080
	}
	if m.Output.Height <= 0 {
		m.Output.Height = 1920
	}

	if m.Timing.TypingSeconds <= 0 {
		m.Timing.TypingSeconds = 2.0
	}
	if m.Timing.RevealSeconds <= 0 {
		m.Timing.RevealSeconds = 3.0
	}
	if m.Timing.PauseSeconds <= 0 {
		m.Timing.PauseSeconds = 0.5
	}

	c.applyLayoutDefaults()
	c.applyThemeDefaults()

	if m.Fonts.HeaderSize <= 0 {
		m.Fonts.HeaderSize = 18
	}
	if m.Fonts.MessageSize <= 0 {
		m.Fonts.MessageSize = 16
	}
	if m.Fonts.TimeSize <= 0 {
		m.Fonts.TimeSize = 12
	}

	if m.Tones.SampleRate <= 0 {
		m.Tones.SampleRate = 44100
	}
	if m.Tones.SendFrequency <= 0 {
		m.Tones.SendFrequency = 800
	}
	if m.Tones.SendSeconds <= 0 {
		m.Tones.SendSeconds = 0.1
	}
	if m.Tones.ReceiveFrequency <= 0 {
		m.Tones.ReceiveFrequency = 600
	}
	if m.Tones.ReceiveSeconds <= 0 {
		m.Tones.ReceiveSeconds = 0.15
	}

	if c.Slideshow.Width <= 0 {
		c.Slideshow.Width = 1920
	}
	if c.Slideshow.Height <= 0 {
		c.Slideshow.Height = 1080
	}
	if c.Slideshow.SlideSeconds <= 0 {
		c.Slideshow.SlideSeconds = 3
	}
}

func (c *VideoConfig) applyLayoutDefaults() {
	l := &c.Mockup.Layout
	if l.HeaderHeight <= 0 {
		l.HeaderHeight = 100
	}
	if l.ContentTop <= 0 {
		l.ContentTop = 120
	}
	if l.Gutter <= 0 {
		l.Gutter = 10
	}
	if l.SideMargin <= 0 {
		l.SideMargin = 20
	}
	if l.MaxBubbleWidth <= 0 {
		l.MaxBubbleWidth = 250
	}
	if l.Padding <= 0 {
		l.Padding = 15
	}
	if l.LineHeight <= 0 {
		l.LineHeight = 20
	}
	if l.TimestampHeight <= 0 {
		l.TimestampHeight = 15
	}
	if l.CornerRadius <= 0 {
		l.CornerRadius = 15
	}
}

// applyThemeDefaults fills the dark chat theme
func (c *VideoConfig) applyThemeDefaults() {
	t := &c.Mockup.Theme
	defaults := []struct {
		field *string
		value string
	}{
		{&t.Background, "#111b21"},
		{&t.Header, "#2a3942"},
		{&t.Avatar, "#646464"},
		{&t.UserBubble, "#005f73"},
		{&t.BotBubble, "#2a3942"},
		{&t.Text, "#ffffff"},
		{&t.Time, "#a8a8a8"},
		{&t.Status, "#4caf50"},
	}
	for _, d := range defaults {
		if *d.field == "" {
			*d.field = d.value
		}
	}
}
