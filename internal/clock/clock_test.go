package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedReturnsSameInstant(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	c := NewFixed(at)

	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())
}

func TestFixedSetAndAdvance(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	c := NewFixed(at)

	assert.Equal(t, at.Add(time.Hour), c.Advance(time.Hour))
	assert.Equal(t, at.Add(time.Hour), c.Now())

	c.Set(at)
	assert.Equal(t, at, c.Now())
}

func TestFixedConcurrentAdvance(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixed(at)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, at.Add(100*time.Second), c.Now())
}

func TestSystemIsRecent(t *testing.T) {
	var c Clock = System{}
	assert.WithinDuration(t, time.Now(), c.Now(), time.Minute)
}
