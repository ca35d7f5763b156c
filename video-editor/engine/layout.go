package engine

import (
	"math"
	"strings"

	"golang.org/x/image/font"

	"growth_tools/video-editor/models"
)

// Measurer returns the rendered width of a string in pixels
type Measurer interface {
	Measure(s string) float64
}

// faceMeasurer measures with a font face's advances
type faceMeasurer struct {
	face font.Face
}

func (m faceMeasurer) Measure(s string) float64 {
	return float64(font.MeasureString(m.face, s)) / 64
}

// Bubble is the resolved geometry of one message bubble
type Bubble struct {
	Lines  []string
	Width  float64
	Height float64
}

// Wrap greedily packs words into lines no wider than maxWidth. A word that
// alone exceeds maxWidth gets a line of its own. Empty text yields one
// empty line.
func Wrap(text string, maxWidth float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var current []string
	for _, word := range words {
		candidate := word
		if len(current) > 0 {
			candidate = strings.Join(current, " ") + " " + word
		}
		if m.Measure(candidate) <= maxWidth {
			current = append(current, word)
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = []string{word}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// Layout computes bubble geometry for a mockup style
type Layout struct {
	cfg     models.Layout
	measure Measurer
}

// NewLayout binds a layout style to a text measurer
func NewLayout(cfg models.Layout, m Measurer) *Layout {
	return &Layout{cfg: cfg, measure: m}
}

// MeasureBubble wraps text and sizes the bubble around it
func (l *Layout) MeasureBubble(text string) Bubble {
	padding := float64(l.cfg.Padding)
	maxWidth := float64(l.cfg.MaxBubbleWidth)
	lines := Wrap(text, maxWidth-2*padding, l.measure)

	longest := 0.0
	for _, line := range lines {
		longest = math.Max(longest, l.measure.Measure(line))
	}

	height := float64(len(lines)*l.cfg.LineHeight) + 2*padding
	if !l.cfg.HideTimestamps {
		height += float64(l.cfg.TimestampHeight)
	}

	return Bubble{
		Lines:  lines,
		Width:  math.Min(maxWidth, longest+2*padding),
		Height: height,
	}
}

// Reveal pairs a message with its bubble geometry
func (l *Layout) Reveal(msg Message) RevealedMessage {
	return RevealedMessage{Message: msg, Bubble: l.MeasureBubble(msg.Text)}
}

// BubbleX returns the left edge of a bubble: bots hug the left margin,
// users the right.
func (l *Layout) BubbleX(msg Message, width float64, canvasWidth int) float64 {
	if msg.IsUser() {
		return float64(canvasWidth) - width - float64(l.cfg.SideMargin)
	}
	return float64(l.cfg.SideMargin)
}
