package engine

import (
	"fmt"
	"strings"
)

// Role identifies who sent a chat message
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ParseRole accepts "user" and "bot"; an empty role means user.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "user":
		return RoleUser, nil
	case "bot":
		return RoleBot, nil
	default:
		return "", fmt.Errorf("unknown role %q: use \"user\" or \"bot\"", s)
	}
}

// Message is one chat line in conversation order
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// IsUser reports whether the message is drawn on the sender side
func (m Message) IsUser() bool {
	return m.Role != RoleBot
}

// Conversation is the input to a mockup run
type Conversation struct {
	BotName  string    `json:"bot_name"`
	Messages []Message `json:"messages"`
}

// RevealedMessage is a message whose bubble has already been laid out
type RevealedMessage struct {
	Message Message
	Bubble  Bubble
}

// PhaseKind tags a timeline phase
type PhaseKind int

const (
	PhaseTyping PhaseKind = iota
	PhaseReveal
	PhasePause
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseTyping:
		return "typing"
	case PhaseReveal:
		return "reveal"
	case PhasePause:
		return "pause"
	default:
		return "unknown"
	}
}

// Phase is a contiguous run of frames. Start is the index of its first frame.
type Phase struct {
	Kind    PhaseKind
	Message int
	Start   int
	Frames  int
}

// Tone selects the notification sound for a cue
type Tone int

const (
	ToneSend Tone = iota
	ToneReceive
)

func (t Tone) String() string {
	if t == ToneSend {
		return "send"
	}
	return "receive"
}

// AudioCue places a tone at an offset in seconds from the start of the video
type AudioCue struct {
	Offset  float64
	Tone    Tone
	Message int
}

// FrameRequest describes what one output frame shows. Revealed is the
// number of messages in the drawn history; Freeze frames repeat the
// previous frame verbatim.
type FrameRequest struct {
	Index    int
	Kind     PhaseKind
	Message  int
	Revealed int
	Freeze   bool
}

// Active is the element drawn below the history: a typing indicator or
// the bubble currently being revealed.
type Active struct {
	Typing  bool
	Message *RevealedMessage
}
