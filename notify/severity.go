package notify

import (
	"fmt"
	"strings"
)

// Severity classifies a notification. The zero value is Info.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// ParseSeverity maps a severity name to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return Info, nil
	case "success":
		return Success, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("notify: unknown severity %q", s)
	}
}

// Phase is the display state of the channel.
type Phase int

const (
	PhaseHidden Phase = iota
	PhaseVisible
	PhaseFading
)

func (p Phase) String() string {
	switch p {
	case PhaseVisible:
		return "visible"
	case PhaseFading:
		return "fading"
	default:
		return "hidden"
	}
}
