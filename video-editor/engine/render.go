package engine

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"growth_tools/video-editor/models"
)

const (
	typingBubbleWidth  = 60
	typingBubbleHeight = 40
	avatarRadius       = 20
)

var (
	regularOnce sync.Once
	regularFont *truetype.Font
	regularErr  error
)

func loadRegularFont() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = truetype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// Renderer draws chat frames. Font faces cache glyphs, so a Renderer
// belongs to one run and must not be shared between goroutines.
type Renderer struct {
	cfg     models.MockupConfig
	botName string
	clock   string

	headerFace  font.Face
	messageFace font.Face
	timeFace    font.Face

	layout *Layout
}

// NewRenderer prepares fonts and layout for one mockup run. clock is the
// HH:MM string shown in the header and bubble timestamps.
func NewRenderer(cfg models.MockupConfig, botName, clock string) (*Renderer, error) {
	f, err := loadRegularFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face := func(size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	}

	r := &Renderer{
		cfg:         cfg,
		botName:     botName,
		clock:       clock,
		headerFace:  face(cfg.Fonts.HeaderSize),
		messageFace: face(cfg.Fonts.MessageSize),
		timeFace:    face(cfg.Fonts.TimeSize),
	}
	r.layout = NewLayout(cfg.Layout, faceMeasurer{face: r.messageFace})
	return r, nil
}

// Layout exposes the renderer's bubble layout
func (r *Renderer) Layout() *Layout {
	return r.layout
}

// Render draws the header, every revealed bubble and the active element
func (r *Renderer) Render(history []RevealedMessage, active Active) image.Image {
	w, h := r.cfg.Canvas.Width, r.cfg.Canvas.Height
	l := r.cfg.Layout
	dc := gg.NewContext(w, h)

	dc.SetHexColor(r.cfg.Theme.Background)
	dc.Clear()

	// total content height decides how far the conversation scrolls
	end := float64(l.ContentTop)
	for _, m := range history {
		end += m.Bubble.Height + float64(l.Gutter)
	}
	switch {
	case active.Typing:
		end += typingBubbleHeight
	case active.Message != nil:
		end += active.Message.Bubble.Height
	}
	offset := math.Max(0, end-float64(h-l.SideMargin))

	y := float64(l.ContentTop) - offset
	for _, m := range history {
		r.drawBubble(dc, m, y)
		y += m.Bubble.Height + float64(l.Gutter)
	}
	switch {
	case active.Typing:
		r.drawTypingIndicator(dc, y)
	case active.Message != nil:
		r.drawBubble(dc, *active.Message, y)
	}

	r.drawHeader(dc)
	return dc.Image()
}

func (r *Renderer) drawHeader(dc *gg.Context) {
	w := float64(r.cfg.Canvas.Width)
	headerHeight := float64(r.cfg.Layout.HeaderHeight)

	dc.SetHexColor(r.cfg.Theme.Header)
	dc.DrawRectangle(0, 0, w, headerHeight)
	dc.Fill()

	dc.SetHexColor(r.cfg.Theme.Avatar)
	dc.DrawCircle(avatarRadius, headerHeight/2, avatarRadius)
	dc.Fill()

	dc.SetFontFace(r.headerFace)
	dc.SetHexColor(r.cfg.Theme.Text)
	dc.DrawStringAnchored(r.botName, 55, headerHeight/2-5, 0, 1)

	dc.SetFontFace(r.timeFace)
	dc.SetHexColor(r.cfg.Theme.Status)
	dc.DrawStringAnchored("online", 55, headerHeight/2+15, 0, 1)

	dc.SetHexColor(r.cfg.Theme.Text)
	dc.DrawStringAnchored(r.clock, w-10, 20, 1, 1)
}

// drawTypingIndicator draws three dots in a bot bubble. The dot shades are
// fixed, so every typing frame is identical.
func (r *Renderer) drawTypingIndicator(dc *gg.Context, y float64) {
	x := float64(r.cfg.Layout.SideMargin)

	dc.SetHexColor(r.cfg.Theme.BotBubble)
	dc.DrawRoundedRectangle(x, y, typingBubbleWidth, typingBubbleHeight, float64(r.cfg.Layout.CornerRadius))
	dc.Fill()

	for i := 0; i < 3; i++ {
		shade := int(127 + 127*math.Sin(float64(i)*0.5))
		dc.SetRGB255(shade, shade, shade)
		dc.DrawCircle(x+15+float64(i*10), y+typingBubbleHeight/2, 2)
		dc.Fill()
	}
}

func (r *Renderer) drawBubble(dc *gg.Context, m RevealedMessage, y float64) {
	l := r.cfg.Layout
	b := m.Bubble
	x := r.layout.BubbleX(m.Message, b.Width, r.cfg.Canvas.Width)

	if m.Message.IsUser() {
		dc.SetHexColor(r.cfg.Theme.UserBubble)
	} else {
		dc.SetHexColor(r.cfg.Theme.BotBubble)
	}
	dc.DrawRoundedRectangle(x, y, b.Width, b.Height, float64(l.CornerRadius))
	dc.Fill()

	dc.SetFontFace(r.messageFace)
	dc.SetHexColor(r.cfg.Theme.Text)
	textY := y + float64(l.Padding)
	for _, line := range b.Lines {
		dc.DrawStringAnchored(line, x+float64(l.Padding), textY, 0, 1)
		textY += float64(l.LineHeight)
	}

	if !l.HideTimestamps {
		dc.SetFontFace(r.timeFace)
		dc.SetHexColor(r.cfg.Theme.Time)
		dc.DrawStringAnchored(r.clock, x+b.Width-5, y+b.Height-float64(l.TimestampHeight), 1, 1)
	}
}
