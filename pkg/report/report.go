package report

// Report collects all messages from a validation run. It implements Sink.
// Messages below the configured threshold are dropped at emit time.
type Report struct {
	Messages  []Message `json:"messages"`
	threshold Severity
}

// NewReport creates an empty report that keeps every severity level.
func NewReport() *Report {
	return &Report{threshold: Usage}
}

// NewReportWithThreshold creates a report that keeps only messages at
// least as severe as threshold.
func NewReportWithThreshold(threshold Severity) *Report {
	return &Report{threshold: threshold}
}

// Emit appends a message to the report if it meets the threshold.
func (r *Report) Emit(m Message) {
	if !m.Severity.AtLeast(r.threshold) {
		return
	}
	r.Messages = append(r.Messages, m)
}

// Add appends a message to the report.
func (r *Report) Add(sev Severity, checkID string, msg string) {
	r.Emit(Message{Severity: sev, CheckID: checkID, Message: msg})
}

// AddWithLocation appends a message with a location to the report.
func (r *Report) AddWithLocation(sev Severity, checkID string, msg string, location string) {
	r.Emit(Message{Severity: sev, CheckID: checkID, Message: msg, Location: location})
}

// FatalCount returns the number of FATAL messages.
func (r *Report) FatalCount() int { return r.countBySeverity(Fatal) }

// ErrorCount returns the number of ERROR messages.
func (r *Report) ErrorCount() int { return r.countBySeverity(Error) }

// WarningCount returns the number of WARNING messages.
func (r *Report) WarningCount() int { return r.countBySeverity(Warning) }

// UsageCount returns the number of USAGE messages.
func (r *Report) UsageCount() int { return r.countBySeverity(Usage) }

func (r *Report) countBySeverity(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// IsValid returns true if there are no FATAL or ERROR messages.
func (r *Report) IsValid() bool {
	return r.FatalCount() == 0 && r.ErrorCount() == 0
}

// IDs returns the check IDs of all messages with the given severity, in
// emission order.
func (r *Report) IDs(sev Severity) []string {
	var ids []string
	for _, m := range r.Messages {
		if m.Severity == sev {
			ids = append(ids, m.CheckID)
		}
	}
	return ids
}

// Multiset returns the (CheckID, Severity) occurrence counts of the
// report. Two runs over the same input are compared by this value.
func (r *Report) Multiset() map[Message]int {
	set := make(map[Message]int, len(r.Messages))
	for _, m := range r.Messages {
		key := Message{Severity: m.Severity, CheckID: m.CheckID}
		set[key]++
	}
	return set
}

// Count returns the number of messages with the given check ID and severity.
func (r *Report) Count(checkID string, sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.CheckID == checkID && m.Severity == sev {
			n++
		}
	}
	return n
}

// HasFatal returns true if the report contains a FATAL message.
func (r *Report) HasFatal() bool { return r.FatalCount() > 0 }
