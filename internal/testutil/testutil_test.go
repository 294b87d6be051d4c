package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
)

func TestDeterministicClock_Advances(t *testing.T) {
	clock := NewDeterministicClock(time.Second)

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, 2, clock.Calls())

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_Frozen(t *testing.T) {
	clock := NewDeterministicClock(0)
	assert.Equal(t, clock.Now(), clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock(time.Millisecond)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Now()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, clock.Calls())
}

// TestSnapshot_Covered tests that the fixture populates every collection.
func TestSnapshot_Covered(t *testing.T) {
	s := Snapshot()
	for _, c := range model.Collections {
		assert.NotEmpty(t, s.Records(c), c.Key())
	}
	assert.Equal(t, []string{Lantern, Tide}, s.MovementIDs())
}

func TestRepoFiles(t *testing.T) {
	s := Snapshot()
	files := RepoFiles(t, s)
	require.Len(t, files, s.Len())
	assert.Contains(t, files, "movements/mov-lantern/movement.md")
	assert.Contains(t, files, "movements/mov-tide/entities/ent-tide-founder.md")
}
