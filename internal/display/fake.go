package display

// Screen is one recorded Show call.
type Screen struct {
	Line1 string
	Line2 string
}

// Fake records shown screens for test assertions.
type Fake struct {
	Screens []Screen

	// ShowError, if set, will be returned by Show.
	ShowError error
}

// NewFake creates a Fake display.
func NewFake() *Fake {
	return &Fake{}
}

// Show records the screen.
func (f *Fake) Show(line1, line2 string) error {
	if f.ShowError != nil {
		return f.ShowError
	}
	f.Screens = append(f.Screens, Screen{Line1: line1, Line2: line2})
	return nil
}

// Last returns the most recent screen.
func (f *Fake) Last() (Screen, bool) {
	if len(f.Screens) == 0 {
		return Screen{}, false
	}
	return f.Screens[len(f.Screens)-1], true
}
