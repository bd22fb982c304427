package secureview

import (
	"strings"
	"time"
)

// ViolationType names a blocked attempt to extract a record from the viewer.
type ViolationType string

const (
	ViolationCopy        ViolationType = "copy"
	ViolationPrint       ViolationType = "print"
	ViolationContextMenu ViolationType = "context_menu"
	ViolationDevTools    ViolationType = "devtools"
	ViolationScreenshot  ViolationType = "screenshot"
	ViolationFocusLost   ViolationType = "focus_lost"
	ViolationOther       ViolationType = "other"
)

var knownViolations = map[ViolationType]struct{}{
	ViolationCopy:        {},
	ViolationPrint:       {},
	ViolationContextMenu: {},
	ViolationDevTools:    {},
	ViolationScreenshot:  {},
	ViolationFocusLost:   {},
}

// ParseViolationType accepts kebab-case, snake_case or spaced forms.
// Anything unrecognised is ViolationOther.
func ParseViolationType(raw string) ViolationType {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if _, ok := knownViolations[ViolationType(norm)]; ok {
		return ViolationType(norm)
	}
	return ViolationOther
}

// Violation is one report sent by the secure viewer.
type Violation struct {
	Type              ViolationType `json:"type"`
	PatientIdentifier string        `json:"patientIdentifier"`
	OccurredAt        time.Time     `json:"occurredAt"`
	UserAgent         string        `json:"userAgent,omitempty"`
	RemoteAddr        string        `json:"remoteAddr,omitempty"`
}
