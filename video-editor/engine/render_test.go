package engine

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"growth_tools/video-editor/models"
)

var (
	headerColor     = color.RGBA{42, 57, 66, 255}
	backgroundColor = color.RGBA{17, 27, 33, 255}
	userColor       = color.RGBA{0, 95, 115, 255}
	botColor        = color.RGBA{42, 57, 66, 255}
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(models.DefaultConfig().Mockup, "Mystic Maya", "09:41")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func pixel(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderCanvas(t *testing.T) {
	r := newTestRenderer(t)
	img := r.Render(nil, Active{})

	if b := img.Bounds(); b.Dx() != 376 || b.Dy() != 812 {
		t.Fatalf("bounds = %v, want 376x812", b)
	}
	if got := pixel(img, 200, 5); got != headerColor {
		t.Errorf("header pixel = %v, want %v", got, headerColor)
	}
	if got := pixel(img, 5, 800); got != backgroundColor {
		t.Errorf("background pixel = %v, want %v", got, backgroundColor)
	}
}

func TestRenderBubbleSides(t *testing.T) {
	r := newTestRenderer(t)

	user := r.Layout().Reveal(Message{Role: RoleUser, Text: "Hi"})
	img := r.Render(nil, Active{Message: &user})
	mid := 120 + int(user.Bubble.Height/2)
	if got := pixel(img, 376-20-3, mid); got != userColor {
		t.Errorf("user bubble pixel = %v, want %v", got, userColor)
	}
	if got := pixel(img, 23, mid); got != backgroundColor {
		t.Errorf("left side under a user bubble = %v, want background", got)
	}

	bot := r.Layout().Reveal(Message{Role: RoleBot, Text: "Hello!"})
	img = r.Render([]RevealedMessage{user}, Active{Message: &bot})
	botMid := 120 + int(user.Bubble.Height) + 10 + int(bot.Bubble.Height/2)
	if got := pixel(img, 23, botMid); got != botColor {
		t.Errorf("bot bubble pixel = %v, want %v", got, botColor)
	}
}

func TestRenderTypingIndicatorIsStatic(t *testing.T) {
	r := newTestRenderer(t)
	history := []RevealedMessage{r.Layout().Reveal(Message{Role: RoleUser, Text: "Are you there?"})}

	a := r.Render(history, Active{Typing: true})
	b := r.Render(history, Active{Typing: true})

	var bufA, bufB bytes.Buffer
	if err := png.Encode(&bufA, a); err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(&bufB, b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
		t.Error("typing frames differ between renders")
	}

	y := 120 + int(history[0].Bubble.Height) + 10 + 20
	if got := pixel(a, 23, y); got != botColor {
		t.Errorf("typing bubble pixel = %v, want %v", got, botColor)
	}
}

func TestRenderScrollsLongConversation(t *testing.T) {
	r := newTestRenderer(t)

	var history []RevealedMessage
	for i := 0; i < 12; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleBot
		}
		history = append(history, r.Layout().Reveal(Message{Role: role, Text: strings.Repeat("lorem ipsum ", 6)}))
	}
	last := r.Layout().Reveal(Message{Role: RoleUser, Text: "Hi"})
	img := r.Render(history, Active{Message: &last})

	if got := pixel(img, 200, 5); got != headerColor {
		t.Errorf("header overdrawn: pixel = %v", got)
	}
	bottom := 812 - 20
	mid := bottom - int(last.Bubble.Height/2)
	if got := pixel(img, 376-20-3, mid); got != userColor {
		t.Errorf("latest bubble not scrolled into view: pixel = %v", got)
	}
}
