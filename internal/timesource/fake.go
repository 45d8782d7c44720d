package timesource

import (
	"context"
	"time"

	"github.com/sweeney/mailbox-sensor/internal/logic"
)

// Fake is a manually driven Source for tests.
type Fake struct {
	// T is returned by Now.
	T time.Time

	// Step is added to T after every Now call.
	Step time.Duration

	// UpdateErrors are returned by successive Update calls; once exhausted
	// Update succeeds.
	UpdateErrors []error

	// Updates counts Update calls.
	Updates int

	synced bool
}

// NewFake creates a Fake starting at start and advancing step per Now call.
func NewFake(start time.Time, step time.Duration) *Fake {
	return &Fake{T: start, Step: step}
}

// Update returns the next scripted error, if any.
func (f *Fake) Update(ctx context.Context) error {
	f.Updates++
	if len(f.UpdateErrors) > 0 {
		err := f.UpdateErrors[0]
		f.UpdateErrors = f.UpdateErrors[1:]
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.synced = true
	return nil
}

// Synced reports whether an Update has succeeded.
func (f *Fake) Synced() bool {
	return f.synced
}

// Now returns T and advances it by Step.
func (f *Fake) Now() time.Time {
	t := f.T
	f.T = f.T.Add(f.Step)
	return t
}

// DayID returns the calendar day of t in t's own location.
func (f *Fake) DayID(t time.Time) logic.DayID {
	return logic.DayOf(t)
}
