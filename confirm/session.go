package confirm

import (
	"sync"
	"time"

	"github.com/giygas/prescriptions-api/recordsparser/entities"
)

// Session is one confirmation dialog. All state transitions take mu, so the
// check-and-set of confirming cannot interleave with another attempt.
type Session struct {
	id  string
	cfg Config

	mu         sync.Mutex
	open       bool
	typed      string
	confirming bool
	openedAt   time.Time
	touchedAt  time.Time
}

// ID returns the registry key of the session.
func (s *Session) ID() string {
	return s.id
}

// Snapshot is a read-only copy of a session, safe to serialise.
type Snapshot struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	WarningItems   []string               `json:"warningItems"`
	HasWarnings    bool                   `json:"hasWarnings"`
	RequireTyping  bool                   `json:"requireTyping"`
	ExpectedPhrase string                 `json:"expectedPhrase"`
	TypedInput     string                 `json:"typedInput"`
	IsOpen         bool                   `json:"isOpen"`
	IsConfirming   bool                   `json:"isConfirming"`
	Severity       entities.Severity      `json:"severity"`
	Style          entities.SeverityStyle `json:"style"`
	OpenedAt       time.Time              `json:"openedAt"`
}

// Snapshot copies the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:             s.id,
		Title:          s.cfg.Title,
		Message:        s.cfg.Message,
		WarningItems:   append([]string{}, s.cfg.WarningItems...),
		HasWarnings:    s.cfg.HasWarnings(),
		RequireTyping:  s.cfg.RequireTyping,
		ExpectedPhrase: s.cfg.ConfirmPhrase,
		TypedInput:     s.typed,
		IsOpen:         s.open,
		IsConfirming:   s.confirming,
		Severity:       s.cfg.Severity,
		Style:          entities.StyleForSeverity(s.cfg.Severity),
		OpenedAt:       s.openedAt,
	}
}

// discardable reports whether the session can be dropped: closed, or not
// touched since cutoff. A confirming session is never discardable.
func (s *Session) discardable(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.confirming {
		return false
	}
	return !s.open || s.touchedAt.Before(cutoff)
}
