package constant

import (
	"fmt"
	"strings"
	"time"

	appErrors "notifier/internal/pkg/errors"
)

// TimerOptionKey is the persisted settings key holding the last applied timer option label.
const TimerOptionKey = "timer_option_key"

// TimerOption is one of the closed set of notification intervals a user can pick.
type TimerOption string

const (
	TimerDisabled TimerOption = "Disabled"
	Timer10s      TimerOption = "10s"
	Timer30s      TimerOption = "30s"
	Timer60s      TimerOption = "60s"
	Timer30min    TimerOption = "30min"
	Timer60min    TimerOption = "60min"
)

// timerOptionTable maps every accepted label, including the legacy spellings
// written by older settings screens, to its canonical option.
var timerOptionTable = map[string]TimerOption{
	"Disabled":    TimerDisabled,
	"Deactivated": TimerDisabled,
	"10s":         Timer10s,
	"30s":         Timer30s,
	"60s":         Timer60s,
	"30min":       Timer30min,
	"30 min":      Timer30min,
	"60min":       Timer60min,
	"60 min":      Timer60min,
}

var cadenceTable = map[TimerOption]Cadence{
	Timer10s:   Cadence(10 * time.Second),
	Timer30s:   Cadence(30 * time.Second),
	Timer60s:   Cadence(60 * time.Second),
	Timer30min: Cadence(30 * time.Minute),
	Timer60min: Cadence(60 * time.Minute),
}

// TimerOptions returns the selectable options in display order.
func TimerOptions() []TimerOption {
	return []TimerOption{TimerDisabled, Timer10s, Timer30s, Timer60s, Timer30min, Timer60min}
}

// DecodeTimerOption never fails: unknown labels resolve to TimerDisabled.
func DecodeTimerOption(label string) TimerOption {
	if opt, ok := timerOptionTable[strings.TrimSpace(label)]; ok {
		return opt
	}
	return TimerDisabled
}

// ParseTimerOption is the strict variant of DecodeTimerOption used by the settings write path.
func ParseTimerOption(label string) (TimerOption, error) {
	opt, ok := timerOptionTable[strings.TrimSpace(label)]
	if !ok {
		return TimerDisabled, fmt.Errorf("%w: %q", appErrors.ErrInvalidTimerOption, label)
	}
	return opt, nil
}

// CadenceOf returns the cadence for opt. Options outside the closed set are disabled.
func CadenceOf(opt TimerOption) Cadence {
	return cadenceTable[opt]
}

// Cadence returns the cadence of the option.
func (o TimerOption) Cadence() Cadence {
	return CadenceOf(o)
}

// String returns the canonical label.
func (o TimerOption) String() string {
	return string(o)
}

// Cadence is the interval between notification ticks. The zero value means disabled.
type Cadence time.Duration

// DisabledCadence is the cadence of TimerDisabled.
const DisabledCadence Cadence = 0

// Enabled reports whether the cadence produces ticks.
func (c Cadence) Enabled() bool {
	return c > 0
}

// Interval returns the tick interval, zero when disabled.
func (c Cadence) Interval() time.Duration {
	if !c.Enabled() {
		return 0
	}
	return time.Duration(c)
}

// Millis returns the interval in milliseconds, or -1 when disabled.
func (c Cadence) Millis() int64 {
	if !c.Enabled() {
		return -1
	}
	return time.Duration(c).Milliseconds()
}

func (c Cadence) String() string {
	if !c.Enabled() {
		return "disabled"
	}
	return time.Duration(c).String()
}
