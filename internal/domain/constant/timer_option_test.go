package constant

import (
	"testing"
	"time"

	appErrors "notifier/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTimerOption(t *testing.T) {
	tests := []struct {
		label   string
		want    TimerOption
		millis  int64
		enabled bool
	}{
		{label: "10s", want: Timer10s, millis: 10_000, enabled: true},
		{label: "30s", want: Timer30s, millis: 30_000, enabled: true},
		{label: "60s", want: Timer60s, millis: 60_000, enabled: true},
		{label: "30min", want: Timer30min, millis: 1_800_000, enabled: true},
		{label: "30 min", want: Timer30min, millis: 1_800_000, enabled: true},
		{label: "60min", want: Timer60min, millis: 3_600_000, enabled: true},
		{label: "60 min", want: Timer60min, millis: 3_600_000, enabled: true},
		{label: " 10s\n", want: Timer10s, millis: 10_000, enabled: true},
		{label: "Disabled", want: TimerDisabled, millis: -1},
		{label: "Deactivated", want: TimerDisabled, millis: -1},
		{label: "", want: TimerDisabled, millis: -1},
		{label: "5s", want: TimerDisabled, millis: -1},
		{label: "10S", want: TimerDisabled, millis: -1},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := DecodeTimerOption(tt.label)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.millis, got.Cadence().Millis())
			assert.Equal(t, tt.enabled, got.Cadence().Enabled())
		})
	}
}

func TestParseTimerOptionRejectsUnknownLabels(t *testing.T) {
	opt, err := ParseTimerOption("60 min")
	require.NoError(t, err)
	assert.Equal(t, Timer60min, opt)

	_, err = ParseTimerOption("every minute")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTimerOption)
}

func TestTimerOptionsRoundTripCanonically(t *testing.T) {
	for _, opt := range TimerOptions() {
		assert.Equal(t, opt, DecodeTimerOption(opt.String()))
	}
	assert.Len(t, TimerOptions(), 6)
}

func TestCadence(t *testing.T) {
	assert.Equal(t, time.Duration(0), DisabledCadence.Interval())
	assert.Equal(t, "disabled", DisabledCadence.String())
	assert.Equal(t, 30*time.Minute, Timer30min.Cadence().Interval())
	assert.Equal(t, "1h0m0s", Timer60min.Cadence().String())
	assert.Equal(t, DisabledCadence, CadenceOf(TimerOption("bogus")))
}
