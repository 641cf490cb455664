package model

import (
	"fmt"
	"strings"
)

// Priority ranks habits and tasks for placement order.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Weight returns the numeric rank of a priority, higher wins.
// Unknown values weigh zero and lose to every real priority.
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// ParsePriority converts user input into a Priority. Empty input means
// "not set" and returns the empty Priority with no error.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return "", nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}
