// Package notify delivers push notifications about mailbox events.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// ParseMode selects the markup of a message.
type ParseMode string

const (
	ModePlain    ParseMode = ""
	ModeMarkdown ParseMode = "Markdown"
)

// ErrNoBackend is returned by Multi when no backend is configured.
var ErrNoBackend = errors.New("notify: no backend configured")

// Notifier sends a text message to a channel.
type Notifier interface {
	// Send delivers text to chatID. Implementations may ignore chatID when
	// their recipients are fixed by configuration.
	Send(ctx context.Context, chatID, text string, mode ParseMode) error
}

// Multi sends every message through all backends.
type Multi []Notifier

// Send attempts every backend and joins their errors.
func (m Multi) Send(ctx context.Context, chatID, text string, mode ParseMode) error {
	if len(m) == 0 {
		return ErrNoBackend
	}
	var errs []error
	for i, n := range m {
		if err := n.Send(ctx, chatID, text, mode); err != nil {
			errs = append(errs, fmt.Errorf("backend %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
