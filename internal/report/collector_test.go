package report_test

import (
	"testing"
	"time"

	"github.com/srg/senspoll/internal/central"
	"github.com/srg/senspoll/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(role central.Role, kind central.Kind, value float64) central.Sample {
	return central.Sample{
		Role:  role,
		Kind:  kind,
		Value: value,
		Unit:  kind.Unit(),
		At:    time.Date(2026, 1, 1, 0, 0, int(value), 0, time.UTC),
	}
}

func TestNewCollectorValidation(t *testing.T) {
	_, err := report.NewCollector(0, 1)
	assert.Error(t, err)

	_, err = report.NewCollector(report.MaxHistorySize+1, 1)
	assert.Error(t, err)

	c, err := report.NewCollector(8, 0)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCollectorLatestAndSnapshot(t *testing.T) {
	c, err := report.NewCollector(16, 16)
	require.NoError(t, err)

	c.Report(sample("rgb", central.Blue, 1))
	c.Report(sample("env", central.Pressure, 2))
	c.Report(sample("env", central.Temperature, 3))
	c.Report(sample("env", central.Temperature, 4))

	latest, ok := c.Latest("env", central.Temperature)
	require.True(t, ok)
	assert.Equal(t, 4.0, latest.Value, "latest MUST keep the newest sample")

	_, ok = c.Latest("env", central.Humidity)
	assert.False(t, ok)

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, central.Temperature, snap[0].Kind)
	assert.Equal(t, central.Pressure, snap[1].Kind)
	assert.Equal(t, central.Role("rgb"), snap[2].Role)

	assert.Equal(t, int64(4), c.Stats().Reported)
}

func TestCollectorHistory(t *testing.T) {
	t.Run("drains in report order", func(t *testing.T) {
		c, err := report.NewCollector(8, 8)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			c.Report(sample("env", central.Temperature, float64(i)))
		}

		got := c.Drain()
		require.Len(t, got, 3)
		for i, s := range got {
			assert.Equal(t, float64(i), s.Value)
		}
		assert.Empty(t, c.Drain(), "drain MUST empty the history")
	})

	t.Run("overflow keeps the newest", func(t *testing.T) {
		c, err := report.NewCollector(4, 4)
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			c.Report(sample("env", central.Temperature, float64(i)))
		}

		got := c.Drain()
		require.NotEmpty(t, got)
		assert.Less(t, len(got), 20)
		assert.Equal(t, 19.0, got[len(got)-1].Value)
		assert.Positive(t, c.Stats().HistoryOverwritten)
	})
}

func TestCollectorStream(t *testing.T) {
	c, err := report.NewCollector(8, 2)
	require.NoError(t, err)

	c.Report(sample("rgb", central.Red, 1))
	c.Report(sample("rgb", central.Green, 2))
	c.Report(sample("rgb", central.Blue, 3))
	c.Close()

	var got []float64
	for s := range c.Stream() {
		got = append(got, s.Value)
	}
	assert.Equal(t, []float64{2, 3}, got, "slow reader MUST lose the oldest samples")
	assert.Equal(t, int64(1), c.Stats().StreamOverwritten)
}
