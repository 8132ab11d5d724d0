package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/unifex/encoding/json"
)

func TestTimeUnmarshal(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name    string
		payload string
		wantMS  int64
	}{
		{"epoch seconds", `1583778859`, 1583778859000},
		{"epoch milliseconds", `1583778859480`, 1583778859480},
		{"quoted milliseconds", `"1583778859480"`, 1583778859480},
		{"seconds with millisecond fraction", `"1583778859.480"`, 1583778859480},
		{"epoch microseconds", `1583778859480000`, 1583778859480},
		{"rfc3339", `"2020-03-09T18:34:19.480Z"`, 1583778859480},
		{"null", `null`, 0},
		{"zero", `0`, 0},
		{"empty string", `""`, 0},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var ts Time
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &ts))
			assert.Equal(t, tc.wantMS, ts.UnixMilli())
		})
	}

	var ts Time
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestTimeISO8601(t *testing.T) {
	t.Parallel()

	ts := Time(time.UnixMilli(1583778859480))
	assert.Equal(t, "2020-03-09T18:34:19.480Z", ts.ISO8601())
	assert.Equal(t, int64(1583778859480), ts.UnixMilli())

	// Zero values render empty rather than the epoch.
	assert.Equal(t, "", Time{}.ISO8601())
	assert.Equal(t, int64(0), Time{}.UnixMilli())
}
