package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestWaitJoinsAllSubmittedJobs(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)
	defer js.Shutdown()

	var done atomic.Int32
	for i := 0; i < 100; i++ {
		require.NoError(t, js.Submit(Job{Name: "count", Run: func() error {
			done.Add(1)
			return nil
		}}))
	}
	js.Wait()
	assert.Equal(t, int32(100), done.Load())

	// The barrier is reusable frame after frame.
	require.NoError(t, js.Submit(Job{Name: "again", Run: func() error {
		done.Add(1)
		return nil
	}}))
	js.Wait()
	assert.Equal(t, int32(101), done.Load())
}

func TestFailedJobCallsOnFailure(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	boom := errors.New("boom")
	var got atomic.Value
	require.NoError(t, js.Submit(Job{
		Name:      "fail",
		Run:       func() error { return boom },
		OnFailure: func(err error) { got.Store(err) },
	}))
	js.Wait()
	assert.ErrorIs(t, got.Load().(error), boom)
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Submit(Job{Run: func() error { return nil }}), ErrJobSystemClosed)
	assert.GreaterOrEqual(t, DefaultWorkerCount(), 1)
}
