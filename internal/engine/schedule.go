package engine

import (
	"errors"
	"fmt"
)

// ErrInsufficientDepth is returned when the search is too shallow for every
// country to act at least once.
var ErrInsufficientDepth = errors.New("max depth is less than the number of agents")

// Discount tiers applied to utility as the search deepens.
const (
	DiscountNear = 1.0
	DiscountMid  = 0.9
	DiscountFar  = 0.8
)

// Schedule maps depth (1..MaxDepth) to the acting country, round-robin.
type Schedule struct {
	turns []string // turns[d-1] acts at depth d
}

// BuildSchedule repeats the ordered agent list until maxDepth is covered.
func BuildSchedule(maxDepth int, agents []string) (Schedule, error) {
	if len(agents) == 0 {
		return Schedule{}, errors.New("schedule: no agents")
	}
	if maxDepth < len(agents) {
		return Schedule{}, fmt.Errorf("schedule: depth %d, agents %d: %w", maxDepth, len(agents), ErrInsufficientDepth)
	}

	turns := make([]string, maxDepth)
	for d := range turns {
		turns[d] = agents[d%len(agents)]
	}
	return Schedule{turns: turns}, nil
}

// At returns the country acting at depth, or "" outside 1..MaxDepth.
func (s Schedule) At(depth int) string {
	if depth < 1 || depth > len(s.turns) {
		return ""
	}
	return s.turns[depth-1]
}

// MaxDepth returns the deepest scheduled depth.
func (s Schedule) MaxDepth() int {
	return len(s.turns)
}

// DiscountRate splits [1, MaxDepth] into thirds of MaxDepth/3 depths each:
// 1.0 in the first, 0.9 in the second and 0.8 beyond.
func (s Schedule) DiscountRate(depth int) float64 {
	third := s.MaxDepth() / 3
	switch {
	case depth <= third:
		return DiscountNear
	case depth <= 2*third:
		return DiscountMid
	default:
		return DiscountFar
	}
}
