package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTestClock(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clk := NewTestClock(start)

	assert.Equal(t, start, clk.Now())

	clk.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), clk.Now())

	later := start.AddDate(0, 1, 0)
	clk.Set(later)
	assert.Equal(t, later, clk.Now())
}

func TestSystemClock(t *testing.T) {
	clk := NewSystemClock()
	before := time.Now()
	now := clk.Now()
	assert.False(t, now.Before(before.Add(-time.Second)))
}
