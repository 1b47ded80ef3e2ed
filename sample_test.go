package fitrecalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return testStart.Add(time.Duration(sec) * time.Second)
}

func f(v float64) *float64 {
	return &v
}

func TestCoalesceMergesSameSecond(t *testing.T) {
	series := Coalesce([]Record{
		{Timestamp: at(0), Distance: f(100)},
		{Timestamp: at(0), Latitude: f(45.5), Longitude: f(-73.6)},
	})

	require.Equal(t, 1, series.Len())
	s := series.At(0)
	require.NotNil(t, s.Distance)
	assert.Equal(t, 100.0, *s.Distance)
	require.NotNil(t, s.Position)
	assert.Equal(t, Position{Lat: 45.5, Lon: -73.6}, *s.Position)
}

func TestCoalesceIsOrderIndependentForDisjointFields(t *testing.T) {
	a := Record{Timestamp: at(5), HeartRate: f(140), Cadence: f(88)}
	b := Record{Timestamp: at(5), Speed: f(3.2), Altitude: f(120)}

	ab := Coalesce([]Record{a, b}).At(0)
	ba := Coalesce([]Record{b, a}).At(0)

	assert.Equal(t, ab, ba)
}

func TestCoalesceLastPresentValueWins(t *testing.T) {
	series := Coalesce([]Record{
		{Timestamp: at(1), HeartRate: f(120), Speed: f(2.0)},
		{Timestamp: at(1), HeartRate: f(125)},
		{Timestamp: at(1), HeartRate: nil, Speed: nil},
	})

	s := series.At(0)
	assert.Equal(t, 125.0, *s.HeartRate)
	assert.Equal(t, 2.0, *s.Speed)
}

func TestCoalesceRequiresCompleteCoordinatePair(t *testing.T) {
	series := Coalesce([]Record{
		{Timestamp: at(0), Latitude: f(1), Longitude: f(2)},
		{Timestamp: at(0), Latitude: f(9)},
	})

	s := series.At(0)
	require.NotNil(t, s.Position)
	assert.Equal(t, Position{Lat: 1, Lon: 2}, *s.Position)

	lone := Coalesce([]Record{{Timestamp: at(0), Longitude: f(2)}}).At(0)
	assert.Nil(t, lone.Position)
}

func TestCoalesceDropsUntimedRecordsAndSorts(t *testing.T) {
	series := Coalesce([]Record{
		{Timestamp: at(10), Distance: f(30)},
		{Distance: f(999)},
		{Timestamp: at(2), Distance: f(10)},
		{Timestamp: at(2).Add(400 * time.Millisecond), Distance: f(11)},
	})

	assert.Equal(t, 1, series.Dropped)
	require.Equal(t, 2, series.Len())
	assert.True(t, series.At(0).Timestamp.Equal(at(2)))
	assert.Equal(t, 11.0, *series.At(0).Distance)
	assert.True(t, series.At(1).Timestamp.Equal(at(10)))
}

func TestSeriesCopiesDoNotAlias(t *testing.T) {
	series := Coalesce([]Record{{Timestamp: at(0), Distance: f(5), Latitude: f(1), Longitude: f(1)}})

	s := series.At(0)
	*s.Distance = 50
	s.Position.Lat = 40

	again, ok := series.Lookup(at(0))
	require.True(t, ok)
	assert.Equal(t, 5.0, *again.Distance)
	assert.Equal(t, 1.0, again.Position.Lat)

	_, ok = series.Lookup(at(1))
	assert.False(t, ok)
}
