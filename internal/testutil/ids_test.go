package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceIDGenerator_Sequence(t *testing.T) {
	gen := NewSequenceIDGenerator("test")

	assert.Equal(t, "test-1", gen.Generate())
	assert.Equal(t, "test-2", gen.Generate())
	assert.Equal(t, "test-3", gen.Generate())
}

func TestSequenceIDGenerator_DefaultPrefix(t *testing.T) {
	gen := NewSequenceIDGenerator("")
	assert.Equal(t, "op-1", gen.Generate())
}

func TestSequenceIDGenerator_Reset(t *testing.T) {
	gen := NewSequenceIDGenerator("x")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "x-1", gen.Generate())
}

func TestSequenceIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceIDGenerator("op")
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make([]string, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = gen.Generate()
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, numGoroutines)
	for _, id := range results {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, numGoroutines)
}
