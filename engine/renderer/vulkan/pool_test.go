package vulkan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeQueueCallDoesNotBlockOtherFamilies(t *testing.T) {
	pool := NewVulkanLockPool()
	pool.SetQueueFamily(0)
	pool.SetQueueFamily(1)

	inside := make(chan struct{})
	release := make(chan struct{})
	go pool.SafeQueueCall(0, func() error {
		close(inside)
		<-release
		return nil
	})
	<-inside

	done := make(chan struct{})
	go func() {
		pool.SafeQueueCall(1, func() error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("family 1 was blocked by a call on family 0")
	}
	close(release)
}

func TestSafeCallIsMutuallyExclusive(t *testing.T) {
	pool := NewVulkanLockPool()

	var wg sync.WaitGroup
	counter, active, maxActive := 0, 0, 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pool.SafeCall(MemoryManagement, func() error {
				active++
				maxActive = max(maxActive, active)
				counter++
				active--
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 32, counter)
	assert.Equal(t, 1, maxActive)
}
