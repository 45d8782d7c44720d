package notify

import "context"

// Message is one recorded Send call.
type Message struct {
	ChatID string
	Text   string
	Mode   ParseMode
}

// Fake records sent messages for test assertions.
type Fake struct {
	// Messages contains all messages that were sent successfully.
	Messages []Message

	// SendError, if set, will be returned by Send.
	SendError error

	// Attempts counts Send calls, including failed ones.
	Attempts int
}

// NewFake creates a Fake notifier.
func NewFake() *Fake {
	return &Fake{}
}

// Send records the message.
func (f *Fake) Send(_ context.Context, chatID, text string, mode ParseMode) error {
	f.Attempts++
	if f.SendError != nil {
		return f.SendError
	}
	f.Messages = append(f.Messages, Message{ChatID: chatID, Text: text, Mode: mode})
	return nil
}

// Reset clears recorded messages.
func (f *Fake) Reset() {
	f.Messages = nil
	f.SendError = nil
	f.Attempts = 0
}
