package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingDelay_PadsFailures(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 50, RandomDelayMs: 0})

	start := time.Now()
	td.WaitFrom(start, false)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestTimingDelay_NoPadOnSuccess(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 200, RandomDelayMs: 0})

	start := time.Now()
	td.WaitFrom(start, true)

	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestTimingDelay_ElapsedTimeCounts(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 50, RandomDelayMs: 0})

	// The operation already took longer than the target; no extra sleep.
	start := time.Now().Add(-100 * time.Millisecond)
	before := time.Now()
	td.WaitFrom(start, false)

	assert.Less(t, time.Since(before), 25*time.Millisecond)
}

func TestCryptoRandIntn(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := cryptoRandIntn(50)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 50)
	}

	n, err := cryptoRandIntn(0)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
