package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	parsed, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 30}, parsed)
	assert.Equal(t, "09:30", parsed.String())

	for _, invalid := range []string{"9:30:00", "25:00", "12:61", "noon", ""} {
		_, err := ParseTimeOfDay(invalid)
		assert.Error(t, err, "expected %q to be rejected", invalid)
	}
}

func TestTimeOfDay_JSON(t *testing.T) {
	data, err := json.Marshal(TimeOfDay{Hour: 22, Minute: 5})
	require.NoError(t, err)
	assert.Equal(t, `"22:05"`, string(data))

	var decoded TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"06:45"`), &decoded))
	assert.Equal(t, TimeOfDay{Hour: 6, Minute: 45}, decoded)

	assert.Error(t, json.Unmarshal([]byte(`"junk"`), &decoded))
}

func TestTimeOfDay_On(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	ref := time.Date(2026, 7, 4, 23, 50, 0, 0, time.UTC)
	anchored := TimeOfDay{Hour: 9, Minute: 15}.On(ref, loc)

	// 23:50 UTC is still July 4th in New York
	assert.Equal(t, time.Date(2026, 7, 4, 9, 15, 0, 0, loc), anchored)
}

func TestRecurringGiveaway_WindowDuration(t *testing.T) {
	r := &RecurringGiveaway{
		StartTime: TimeOfDay{Hour: 9, Minute: 0},
		EndTime:   TimeOfDay{Hour: 17, Minute: 30},
	}
	assert.Equal(t, 8*time.Hour+30*time.Minute, r.WindowDuration())

	overnight := &RecurringGiveaway{
		StartTime: TimeOfDay{Hour: 22, Minute: 0},
		EndTime:   TimeOfDay{Hour: 6, Minute: 0},
	}
	assert.Equal(t, 8*time.Hour, overnight.WindowDuration())

	fullDay := &RecurringGiveaway{
		StartTime: TimeOfDay{Hour: 12, Minute: 0},
		EndTime:   TimeOfDay{Hour: 12, Minute: 0},
	}
	assert.Equal(t, 24*time.Hour, fullDay.WindowDuration())
}
