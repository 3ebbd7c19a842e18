package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Scenario is a declarative list of work items to replay on a Scheduler.
type Scenario struct {
	Name     string   `json:"name"`
	MaxTurns int      `json:"max_turns,omitempty"`
	Items    []Item   `json:"items"`
	Cancel   []string `json:"cancel,omitempty"` // item names cancelled before the first turn
}

// Item describes one work item and what its action does when it runs.
type Item struct {
	Name string `json:"name"`

	// Kind is immediate, timer or end_of_turn. short_timer and long_timer
	// are accepted as aliases of timer; the delay picks the class.
	Kind  string   `json:"kind"`
	Delay Duration `json:"delay,omitempty"`

	// Log writes a message through a sink at Level (info, warn, error or plain).
	Log   string `json:"log,omitempty"`
	Level string `json:"level,omitempty"`

	// Fail makes the action return an error with this text.
	Fail string `json:"fail,omitempty"`
	// Panic makes the action panic with this value.
	Panic string `json:"panic,omitempty"`

	// Cancel lists item names the action cancels.
	Cancel []string `json:"cancel,omitempty"`

	// Then lists items the action schedules.
	Then []Item `json:"then,omitempty"`
}

// Duration is a non-negative delay written either as a Go duration string
// ("50ms", "1s") or as a bare number of milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		if n < 0 {
			return fmt.Errorf("delay must be >= 0, got %v", n)
		}
		*d = Duration(time.Duration(n * float64(time.Millisecond)))
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("delay must be a duration string or milliseconds: %s", b)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid delay %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("delay must be >= 0, got %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
