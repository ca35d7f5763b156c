package engine

import "math"

// Timing holds the frame rate and per-phase durations in seconds
type Timing struct {
	FrameRate int
	Typing    float64
	Reveal    float64
	Pause     float64
}

// Timeline is the ordered phase sequence for a conversation
type Timeline struct {
	FrameRate   int
	Phases      []Phase
	Cues        []AudioCue
	TotalFrames int
}

// FramesFor quantizes a duration to whole frames, dropping the remainder.
func FramesFor(seconds float64, frameRate int) int {
	if seconds <= 0 || frameRate <= 0 {
		return 0
	}
	// the epsilon keeps 0.3*30 from landing on 8.999...
	return int(math.Floor(seconds*float64(frameRate) + 1e-9))
}

// BuildTimeline lays out typing, reveal and pause phases for every message
// and records one audio cue at the start of each reveal.
func BuildTimeline(messages []Message, timing Timing) Timeline {
	typingFrames := FramesFor(timing.Typing, timing.FrameRate)
	revealFrames := FramesFor(timing.Reveal, timing.FrameRate)
	pauseFrames := FramesFor(timing.Pause, timing.FrameRate)

	tl := Timeline{
		FrameRate: timing.FrameRate,
		Phases:    make([]Phase, 0, 3*len(messages)),
		Cues:      make([]AudioCue, 0, len(messages)),
	}

	frame := 0
	for i, msg := range messages {
		if !msg.IsUser() {
			tl.Phases = append(tl.Phases, Phase{Kind: PhaseTyping, Message: i, Start: frame, Frames: typingFrames})
			frame += typingFrames
		}

		tone := ToneReceive
		if msg.IsUser() {
			tone = ToneSend
		}
		tl.Cues = append(tl.Cues, AudioCue{
			Offset:  tl.seconds(frame),
			Tone:    tone,
			Message: i,
		})

		tl.Phases = append(tl.Phases, Phase{Kind: PhaseReveal, Message: i, Start: frame, Frames: revealFrames})
		frame += revealFrames

		if i < len(messages)-1 {
			tl.Phases = append(tl.Phases, Phase{Kind: PhasePause, Message: i, Start: frame, Frames: pauseFrames})
			frame += pauseFrames
		}
	}

	tl.TotalFrames = frame
	return tl
}

// Duration is the length of the timeline in seconds
func (tl Timeline) Duration() float64 {
	return tl.seconds(tl.TotalFrames)
}

// Frames expands the phases into one request per output frame
func (tl Timeline) Frames() []FrameRequest {
	frames := make([]FrameRequest, 0, tl.TotalFrames)
	for _, p := range tl.Phases {
		revealed := p.Message
		if p.Kind == PhasePause {
			revealed = p.Message + 1
		}
		for i := 0; i < p.Frames; i++ {
			frames = append(frames, FrameRequest{
				Index:    p.Start + i,
				Kind:     p.Kind,
				Message:  p.Message,
				Revealed: revealed,
				Freeze:   p.Kind == PhasePause,
			})
		}
	}
	return frames
}

// Count returns the number of phases of the given kind
func (tl Timeline) Count(kind PhaseKind) int {
	n := 0
	for _, p := range tl.Phases {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

func (tl Timeline) seconds(frames int) float64 {
	if tl.FrameRate <= 0 {
		return 0
	}
	return float64(frames) / float64(tl.FrameRate)
}
