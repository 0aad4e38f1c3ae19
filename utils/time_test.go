package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "18:00", want: 1080},
		{in: "24:00", want: 1440},
		{in: "25:00", wantErr: true},
		{in: "9am", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateHelpers(t *testing.T) {
	at := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-19", DateOf(at))
	assert.Equal(t, 23*60+59, MinuteOfDay(at))

	d, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("19/10/2026")
	assert.Error(t, err)
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.13, RoundMoney(10.125000001))
	assert.Equal(t, 0.0, RoundMoney(0))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at, FixedClock{At: at}.Now())
}
