// Package diagnostics describes the structured events pushed to preview
// clients.
package diagnostics

import "github.com/rs/zerolog"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// MarshalZerologObject lets a diagnostic be logged as a nested object.
func (d Diagnostic) MarshalZerologObject(e *zerolog.Event) {
	e.Str("severity", string(d.Severity)).Str("code", d.Code).Str("summary", d.Summary)
	if d.Detail != "" {
		e.Str("detail", d.Detail)
	}
	if len(d.Evidence) > 0 {
		e.Fields(d.Evidence)
	}
}
