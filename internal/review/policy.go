// Package review models spaced-repetition scheduling as a pluggable policy
// over a card's persisted state. Persistence code never inspects the
// algorithm; it stores whatever state the policy returns.
package review

import (
	"fmt"
	"strings"
	"time"
)

// Status tracks where a card sits in its repetition lifecycle.
type Status string

const (
	// StatusLearning marks a card still on the initial short-interval ladder.
	StatusLearning Status = "LEARNING"
	// StatusReview marks a graduated card on long multiplicative intervals.
	StatusReview Status = "REVIEW"
	// StatusRelearning marks a lapsed card repeating the ladder.
	StatusRelearning Status = "RELEARNING"
)

// Grade is the answer quality reported for a single review.
type Grade int

const (
	Again Grade = iota + 1
	Hard
	Good
	Easy
)

// ParseGrade maps the wire representation to a Grade.
func ParseGrade(s string) (Grade, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AGAIN":
		return Again, nil
	case "HARD":
		return Hard, nil
	case "GOOD":
		return Good, nil
	case "EASY":
		return Easy, nil
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

// State is the persisted review state of a card.
// Timestamps are Unix seconds; zero means the card was never reviewed.
type State struct {
	Status       Status
	LearningStep int
	Interval     int64 // seconds
	LastReview   int64
	NextReview   int64
}

// NewState returns the state assigned to a freshly created card.
func NewState() State {
	return State{Status: StatusLearning}
}

// Due reports whether the card should be shown at the given time.
func (s State) Due(now time.Time) bool {
	return s.NextReview <= now.Unix()
}

// Policy decides how a card's state evolves after an answer.
// Implementations must be pure: same inputs, same output.
type Policy interface {
	Next(s State, g Grade, now time.Time) State
}

// StepPolicy schedules with a fixed learning-step ladder followed by
// multiplicative interval growth. All knobs are configuration; nothing
// here claims to reproduce any particular historical scheduler.
type StepPolicy struct {
	Steps              []time.Duration // learning ladder, shortest first
	GraduatingInterval time.Duration   // first interval after the ladder
	EasyInterval       time.Duration   // interval when Easy skips the ladder
	GoodMultiplier     float64         // interval growth for Good in REVIEW
	HardMultiplier     float64
	EasyBonus          float64 // extra factor on top of GoodMultiplier
	LapseMultiplier    float64 // interval reduction after a lapse
	MinInterval        time.Duration
	MaxInterval        time.Duration // growth ceiling; keeps repeated multiplication finite
}

// DefaultStepPolicy returns a conservative ladder: two short learning steps,
// one-day graduation, 2.5x growth.
func DefaultStepPolicy() *StepPolicy {
	return &StepPolicy{
		Steps:              []time.Duration{time.Minute, 10 * time.Minute},
		GraduatingInterval: 24 * time.Hour,
		EasyInterval:       4 * 24 * time.Hour,
		GoodMultiplier:     2.5,
		HardMultiplier:     1.2,
		EasyBonus:          1.3,
		LapseMultiplier:    0.5,
		MinInterval:        time.Minute,
		MaxInterval:        36500 * 24 * time.Hour,
	}
}

var _ Policy = (*StepPolicy)(nil)

// Next advances the state for one answer at the given time.
func (p *StepPolicy) Next(s State, g Grade, now time.Time) State {
	switch s.Status {
	case StatusReview:
		s = p.nextReview(s, g)
	default:
		// LEARNING and RELEARNING share the ladder.
		s = p.nextLearning(s, g)
	}
	s.LastReview = now.Unix()
	s.NextReview = now.Unix() + s.Interval
	return s
}

func (p *StepPolicy) nextLearning(s State, g Grade) State {
	switch g {
	case Again:
		s.LearningStep = 0
		s.Interval = p.stepInterval(0)
	case Hard:
		// repeat the current step
		s.Interval = p.stepInterval(s.LearningStep)
	case Good:
		s.LearningStep++
		if s.LearningStep >= len(p.Steps) {
			return p.graduate(s, p.GraduatingInterval)
		}
		s.Interval = p.stepInterval(s.LearningStep)
	case Easy:
		return p.graduate(s, p.EasyInterval)
	}
	return s
}

func (p *StepPolicy) nextReview(s State, g Grade) State {
	switch g {
	case Again:
		s.Status = StatusRelearning
		s.LearningStep = 0
		if len(p.Steps) > 0 {
			s.Interval = p.stepInterval(0)
		} else {
			s.Interval = p.grow(s.Interval, p.LapseMultiplier)
		}
	case Hard:
		s.Interval = p.grow(s.Interval, p.HardMultiplier)
	case Good:
		s.Interval = p.grow(s.Interval, p.GoodMultiplier)
	case Easy:
		s.Interval = p.grow(s.Interval, p.GoodMultiplier*p.EasyBonus)
	}
	return s
}

func (p *StepPolicy) graduate(s State, iv time.Duration) State {
	s.Status = StatusReview
	s.LearningStep = 0
	s.Interval = int64(iv / time.Second)
	return s
}

func (p *StepPolicy) stepInterval(step int) int64 {
	if len(p.Steps) == 0 {
		return int64(p.MinInterval / time.Second)
	}
	if step >= len(p.Steps) {
		step = len(p.Steps) - 1
	}
	return int64(p.Steps[step] / time.Second)
}

// grow multiplies the interval in float seconds and clamps the result,
// so repeated growth saturates at MaxInterval instead of overflowing.
func (p *StepPolicy) grow(interval int64, factor float64) int64 {
	next := float64(interval) * factor
	if ceil := p.MaxInterval.Seconds(); ceil > 0 && next > ceil {
		next = ceil
	}
	if floor := p.MinInterval.Seconds(); next < floor {
		next = floor
	}
	return int64(next)
}
