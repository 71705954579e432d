package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("x", 3600))
	c := NewFake(start)
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(start))

	c.Advance(time.Hour)
	assert.True(t, c.Now().Equal(start.Add(time.Hour)))

	c.Set(start)
	assert.True(t, c.Now().Equal(start))
}

func TestRealClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, RealClock{}.Now().Location())
}
