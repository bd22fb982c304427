// Package confirm guards irreversible actions behind an explicit confirmation
// step. A Session may require the user to type a phrase; once confirmed, the
// action runs at most once per attempt cycle and failures leave the session
// open for a user-initiated retry or cancel. Nothing is retried automatically.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/prescriptions-api/metrics"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
	"github.com/google/uuid"
)

// DefaultPhrase is what must be typed when a Config sets RequireTyping without a phrase.
const DefaultPhrase = "CONFIRM"

var (
	ErrSessionClosed   = errors.New("confirmation session is closed")
	ErrConfirmInFlight = errors.New("confirmation already in progress")
	ErrSessionNotFound = errors.New("confirmation session not found")
	errNoAction        = errors.New("no action configured")
)

// ValidationError is a local rejection: the destructive action was not invoked.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ActionError wraps a failure returned by the destructive action.
type ActionError struct {
	Err error
}

func (e *ActionError) Error() string {
	return "confirmed action failed: " + e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Action is the irreversible operation a session guards.
type Action func(ctx context.Context) error

// Config is fixed for the lifetime of a session.
type Config struct {
	Title         string
	Message       string
	WarningItems  []string
	ConfirmPhrase string
	RequireTyping bool
	Severity      entities.Severity
	Action        Action
}

// HasWarnings reports whether the loss-of-data list should be shown.
func (c Config) HasWarnings() bool {
	return len(c.WarningItems) > 0
}

// Outcome classifies the result of AttemptConfirm.
type Outcome string

const (
	OutcomeConfirmed        Outcome = "confirmed"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeActionFailed     Outcome = "action_failed"
	OutcomeIgnored          Outcome = "ignored"
)

// Result is returned instead of an error so callers can switch on Outcome.
// Err is a *ValidationError, an *ActionError, or one of the session
// sentinels for OutcomeIgnored.
type Result struct {
	Outcome Outcome
	Err     error
}

// ErrorReporter receives failures of confirmed actions.
type ErrorReporter interface {
	ReportActionError(ctx context.Context, session Snapshot, err error)
}

// Confirmer opens sessions and drives their state transitions.
type Confirmer struct {
	reporter ErrorReporter
	now      func() time.Time
}

// NewConfirmer returns a Confirmer reporting action failures to reporter.
// A nil reporter falls back to LogReporter.
func NewConfirmer(reporter ErrorReporter) *Confirmer {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Confirmer{reporter: reporter, now: time.Now}
}

// Open starts a fresh session: open, empty input, not confirming.
func (c *Confirmer) Open(cfg Config) *Session {
	if cfg.ConfirmPhrase == "" {
		cfg.ConfirmPhrase = DefaultPhrase
	}
	cfg.Severity = entities.ParseSeverity(string(cfg.Severity))
	cfg.WarningItems = append([]string{}, cfg.WarningItems...)

	now := c.now()
	return &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		open:      true,
		openedAt:  now,
		touchedAt: now,
	}
}

// UpdateInput replaces the typed confirmation text.
func (c *Confirmer) UpdateInput(s *Session, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrSessionClosed
	}
	if s.confirming {
		return ErrConfirmInFlight
	}
	s.typed = text
	s.touchedAt = c.now()
	return nil
}

// AttemptConfirm validates the session and, if it passes, runs the action.
// While an action is in flight every further attempt is ignored. The action
// runs without the session lock held so the session stays observable.
func (c *Confirmer) AttemptConfirm(ctx context.Context, s *Session) Result {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return c.finish(Result{Outcome: OutcomeIgnored, Err: ErrSessionClosed})
	}
	if s.cfg.RequireTyping && s.typed != s.cfg.ConfirmPhrase {
		s.touchedAt = c.now()
		s.mu.Unlock()
		return c.finish(Result{Outcome: OutcomeValidationFailed, Err: &ValidationError{Reason: "phrase mismatch"}})
	}
	if s.confirming {
		s.mu.Unlock()
		return c.finish(Result{Outcome: OutcomeIgnored, Err: ErrConfirmInFlight})
	}
	s.confirming = true
	action := s.cfg.Action
	s.mu.Unlock()

	err := runAction(ctx, action)

	s.mu.Lock()
	s.confirming = false
	s.touchedAt = c.now()
	if err == nil {
		s.open = false
		s.typed = ""
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		actionErr := &ActionError{Err: err}
		c.reporter.ReportActionError(ctx, snap, actionErr)
		return c.finish(Result{Outcome: OutcomeActionFailed, Err: actionErr})
	}
	return c.finish(Result{Outcome: OutcomeConfirmed})
}

// Close discards typed input and closes the session. It is refused while an
// action is in flight; closing a closed session is a no-op.
func (c *Confirmer) Close(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.confirming {
		return ErrConfirmInFlight
	}
	s.typed = ""
	s.open = false
	s.touchedAt = c.now()
	return nil
}

func (c *Confirmer) finish(r Result) Result {
	metrics.ConfirmationOutcomes.WithLabelValues(string(r.Outcome)).Inc()
	return r
}

func runAction(ctx context.Context, action Action) (err error) {
	if action == nil {
		return errNoAction
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("action panicked: %v", rec)
		}
	}()
	return action(ctx)
}
