package logic

// DayCounter counts events per calendar day.
// The zero value has no day yet, so the first Record always returns 1.
type DayCounter struct {
	count int
	day   DayID
	set   bool
}

// Record counts one event on the given day and returns the new count.
// A day different from the stored one resets the count first.
func (c *DayCounter) Record(day DayID) int {
	if !c.set || day != c.day {
		c.count = 0
		c.day = day
		c.set = true
	}
	c.count++
	return c.count
}

// Count returns the count for the stored day.
func (c *DayCounter) Count() int {
	return c.count
}

// Day returns the stored day and whether one has been recorded yet.
func (c *DayCounter) Day() (DayID, bool) {
	return c.day, c.set
}
