// Package display shows short status messages on a 16x2 character display.
package display

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Width is the number of characters per line.
const Width = 16

// Display overwrites both lines of the screen.
type Display interface {
	Show(line1, line2 string) error
}

var asciiFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	norm.NFC,
)

// Fit folds s to printable ASCII and pads or truncates it to Width.
// Accented letters lose their accents; other non-ASCII runes are dropped.
func Fit(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, folded)
	folded = strings.TrimLeft(folded, " ")

	if len(folded) > Width {
		return folded[:Width]
	}
	return folded + strings.Repeat(" ", Width-len(folded))
}

// Log is a Display that only logs, used when no LCD is attached.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging display.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Show logs both lines.
func (l *Log) Show(line1, line2 string) error {
	l.logger.Info("display",
		"line1", strings.TrimRight(Fit(line1), " "),
		"line2", strings.TrimRight(Fit(line2), " "))
	return nil
}
