package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := New()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock("user-a")
			counter++
			km.Unlock("user-a")
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := New()

	km.Lock("user-a")

	done := make(chan struct{})
	go func() {
		// Must not block on a different key.
		km.Lock("user-b")
		km.Unlock("user-b")
		close(done)
	}()

	<-done
	km.Unlock("user-a")
}

func TestKeyedMutex_EntriesReleased(t *testing.T) {
	km := New()

	km.Lock("user-a")
	km.Unlock("user-a")

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}

func TestKeyedMutex_UnlockWithoutLockPanics(t *testing.T) {
	km := New()
	assert.Panics(t, func() { km.Unlock("never-locked") })
}
