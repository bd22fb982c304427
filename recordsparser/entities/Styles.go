package entities

import "strings"

// StatusStyle describes how a status badge is rendered.
type StatusStyle struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Border     string `json:"border"`
	Label      string `json:"label"`
}

var statusStyles = map[Status]StatusStyle{
	StatusActive:    {Background: "bg-green-100", Text: "text-green-800", Border: "border-green-200", Label: StatusActive.Label()},
	StatusCompleted: {Background: "bg-gray-100", Text: "text-gray-800", Border: "border-gray-200", Label: StatusCompleted.Label()},
	StatusCancelled: {Background: "bg-red-100", Text: "text-red-800", Border: "border-red-200", Label: StatusCancelled.Label()},
	StatusOther:     {Background: "bg-blue-100", Text: "text-blue-800", Border: "border-blue-200", Label: StatusOther.Label()},
}

// StyleForStatus always returns a descriptor; unknown values get the StatusOther one.
func StyleForStatus(s Status) StatusStyle {
	if style, ok := statusStyles[s]; ok {
		return style
	}
	return statusStyles[StatusOther]
}

// Severity classifies how dangerous a confirmed action is.
type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity defaults to danger when empty and to info when unrecognised.
func ParseSeverity(raw string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SeverityDanger:
		return SeverityDanger
	case SeverityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// SeverityStyle describes the confirmation dialog palette for a Severity.
type SeverityStyle struct {
	HeaderBackground string `json:"headerBackground"`
	IconBackground   string `json:"iconBackground"`
	IconColor        string `json:"iconColor"`
	ConfirmButton    string `json:"confirmButton"`
	Icon             string `json:"icon"`
}

var severityStyles = map[Severity]SeverityStyle{
	SeverityDanger: {
		HeaderBackground: "bg-gradient-to-r from-red-600 to-red-700",
		IconBackground:   "bg-red-100",
		IconColor:        "text-red-600",
		ConfirmButton:    "bg-red-600 hover:bg-red-700",
		Icon:             "🚨",
	},
	SeverityWarning: {
		HeaderBackground: "bg-gradient-to-r from-orange-600 to-orange-700",
		IconBackground:   "bg-orange-100",
		IconColor:        "text-orange-600",
		ConfirmButton:    "bg-orange-600 hover:bg-orange-700",
		Icon:             "⚠️",
	},
	SeverityInfo: {
		HeaderBackground: "bg-gradient-to-r from-blue-600 to-blue-700",
		IconBackground:   "bg-blue-100",
		IconColor:        "text-blue-600",
		ConfirmButton:    "bg-blue-600 hover:bg-blue-700",
		Icon:             "ℹ️",
	},
}

// StyleForSeverity always returns a descriptor; unknown values get the info palette.
func StyleForSeverity(s Severity) SeverityStyle {
	if style, ok := severityStyles[s]; ok {
		return style
	}
	return severityStyles[SeverityInfo]
}
