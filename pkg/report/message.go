package report

import (
	"fmt"
	"strings"
)

// Severity levels for validation messages, ordered from most to least severe.
type Severity string

const (
	Fatal   Severity = "FATAL"
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
	Usage   Severity = "USAGE"
)

// severityRank maps each severity to its position in the total order.
// Lower rank means more severe.
var severityRank = map[Severity]int{
	Fatal:   0,
	Error:   1,
	Warning: 2,
	Usage:   3,
}

// ParseSeverity converts a case-insensitive severity name to its
// Severity value.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(s))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q (want fatal, error, warning, or usage)", s)
	}
	return sev, nil
}

// AtLeast reports whether s is at least as severe as threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] <= severityRank[threshold]
}

// Message represents a single validation finding. CheckID is a stable
// identifier from the message taxonomy; consumers compare runs by
// (CheckID, Severity) multiset, not by message text or order.
type Message struct {
	Severity Severity `json:"severity"`
	CheckID  string   `json:"check_id"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
}

func (m Message) String() string {
	if m.Location != "" {
		return fmt.Sprintf("%s(%s): %s [%s]", m.Severity, m.CheckID, m.Message, m.Location)
	}
	return fmt.Sprintf("%s(%s): %s", m.Severity, m.CheckID, m.Message)
}

// Sink receives messages one at a time, in the order they are found.
type Sink interface {
	Emit(Message)
}
