package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Window(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	now := time.Date(2024, time.December, 31, 23, 30, 0, 0, jakarta)

	t.Run("month", func(t *testing.T) {
		from, to := PeriodMonth.Window(now)
		require.NotNil(t, from)
		require.NotNil(t, to)
		assert.True(t, from.Equal(time.Date(2024, time.December, 1, 0, 0, 0, 0, jakarta)))
		assert.True(t, to.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, jakarta)))
	})

	t.Run("year", func(t *testing.T) {
		from, to := PeriodYear.Window(now)
		require.NotNil(t, from)
		assert.True(t, from.Equal(time.Date(2024, time.January, 1, 0, 0, 0, 0, jakarta)))
		assert.True(t, to.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, jakarta)))
	})

	t.Run("now falls inside its own windows", func(t *testing.T) {
		for _, p := range []Period{PeriodMonth, PeriodYear} {
			from, to := p.Window(now)
			assert.False(t, now.Before(*from), p)
			assert.True(t, now.Before(*to), p)
		}
	})

	for _, p := range []Period{PeriodAll, "", "week"} {
		from, to := p.Window(now)
		assert.Nil(t, from, p)
		assert.Nil(t, to, p)
	}
}
