package app

import (
	"fmt"
	"time"
)

// Toolbox holds the small utility tools offered next to the vibration tools
type Toolbox struct {
	now func() time.Time
}

// NewToolbox creates a toolbox reading the given clock; nil means time.Now
func NewToolbox(now func() time.Time) *Toolbox {
	if now == nil {
		now = time.Now
	}
	return &Toolbox{now: now}
}

// CurrentTime returns the clock's time
func (t *Toolbox) CurrentTime() time.Time {
	return t.now()
}

// Weather is a canned forecast; no weather provider is wired.
func (t *Toolbox) Weather(city string) string {
	return fmt.Sprintf("The weather in %s is sunny.", city)
}

// Add sums two integers
func (t *Toolbox) Add(a, b int) int {
	return a + b
}
