package sensor

import (
	"errors"
	"time"
)

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	// Samples contains scripted readings to return.
	// Each call to Read() consumes the next sample.
	Samples []Reading

	// index tracks current position in Samples
	index int

	// last is returned alongside ReadError
	last Reading

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Reading) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read(time.Time) (Reading, error) {
	if f.ReadError != nil {
		return f.last, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Reading{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	f.last = sample

	return sample, nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.last = Reading{}
}
