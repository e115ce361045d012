package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_Next(t *testing.T) {
	seq := NewSequencer()
	assert.Equal(t, uint16(1), seq.Next())
	assert.Equal(t, uint16(2), seq.Next())
	assert.Equal(t, uint16(3), seq.Next())
	assert.Equal(t, uint16(3), seq.Current())
}

func TestSequencer_Wrap(t *testing.T) {
	seq := NewSequencer()
	seq.n = 65534
	assert.Equal(t, uint16(65535), seq.Next())
	assert.Equal(t, uint16(0), seq.Next())
	assert.Equal(t, uint16(1), seq.Next())
}

func TestSequencer_Concurrent(t *testing.T) {
	const (
		goroutines = 16
		perWorker  = 500
	)

	seq := NewSequencer()
	results := make(chan uint16, goroutines*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	// No number may be skipped or handed out twice.
	seen := make(map[uint16]bool, goroutines*perWorker)
	for v := range results {
		assert.False(t, seen[v], "sequence %d handed out twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, goroutines*perWorker)
	assert.Equal(t, uint16(goroutines*perWorker), seq.Current())
}
