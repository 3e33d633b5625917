package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/queue"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/control"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

func testController(t *testing.T, initial, maxBatch int) *control.Controller {
	t.Helper()
	ctrl, err := control.New(control.Config{
		MinBatch:      1,
		MaxBatch:      maxBatch,
		InitialBatch:  initial,
		TargetLatency: time.Second,
		AdaptiveGain:  true,
	})
	require.NoError(t, err)
	return ctrl
}

func drainPolicy() ports.Policy {
	return ports.Policy{
		OnShutdown:     ports.ShutdownDrain,
		IdleSleep:      5 * time.Millisecond,
		ProcessTimeout: time.Second,
	}
}

func sample(i int) *domain.Sample {
	return &domain.Sample{
		StreamID:  "test",
		Timestamp: time.Now(),
		Seq:       uint64(i),
		Channels:  map[string]float64{"v": float64(i)},
		Quality:   1,
	}
}

func TestThresholdTriggersSingleBatch(t *testing.T) {
	var invocations atomic.Int32
	sizes := make(chan int, 4)

	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		invocations.Add(1)
		sizes <- len(batch)
		return batch, nil
	}

	p, err := New(testController(t, 4, 64), queue.NewMemQueue(64), proc, drainPolicy(), Options{})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, p.AddItem(sample(i)))
	}

	select {
	case got := <-sizes:
		assert.Equal(t, 4, got)
	case <-time.After(2 * time.Second):
		t.Fatal("batch was never dispatched")
	}

	// Give any redundant trigger time to fire before counting.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), invocations.Load())
	assert.Equal(t, 0, p.GetStatus().QueueDepth)
}

func TestNoOverlapUnderConcurrentProducers(t *testing.T) {
	var active atomic.Bool
	var overlaps atomic.Int32
	var processed atomic.Int64

	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		if !active.CompareAndSwap(false, true) {
			overlaps.Add(1)
		}
		time.Sleep(time.Millisecond)
		processed.Add(int64(len(batch)))
		active.Store(false)
		return batch, nil
	}

	p, err := New(testController(t, 8, 32), queue.NewMemQueue(1024), proc, drainPolicy(), Options{})
	require.NoError(t, err)

	const producers = 8
	const perProducer = 25

	var wg sync.WaitGroup
	for g := 0; g < producers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := p.AddItem(sample(g*perProducer + i)); err != nil {
					t.Errorf("add item: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))

	assert.Equal(t, int32(0), overlaps.Load())
	assert.Equal(t, int64(producers*perProducer), processed.Load())
	assert.Equal(t, 0, p.GetStatus().QueueDepth)
}

func TestTimeoutRetriesOnceThenDeadBatch(t *testing.T) {
	var invocations atomic.Int32
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		invocations.Add(1)
		return nil, &domain.ProcessingError{Kind: domain.ProcessingTimeout, Err: fmt.Errorf("downstream stalled")}
	}

	var deads []*domain.DeadBatch
	q := queue.NewMemQueue(16)
	p, err := New(testController(t, 2, 64), q, proc, drainPolicy(), Options{
		OnDeadBatch: func(db *domain.DeadBatch) { deads = append(deads, db) },
	})
	require.NoError(t, err)

	q.Enqueue(1, sample(1))
	q.Enqueue(2, sample(2))

	assert.True(t, p.ProcessBatch())

	assert.Equal(t, int32(2), invocations.Load(), "expected the original attempt plus exactly one retry")
	require.Len(t, deads, 1)
	assert.Equal(t, 2, deads[0].Attempts)
	assert.Equal(t, string(domain.ProcessingTimeout), deads[0].Kind)
	assert.Len(t, deads[0].Samples, 2)
	assert.Equal(t, 0, q.Len())
}

func TestFatalSkipsRetry(t *testing.T) {
	var invocations atomic.Int32
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		invocations.Add(1)
		return nil, &domain.ProcessingError{Kind: domain.ProcessingFatal, Err: fmt.Errorf("schema mismatch")}
	}

	var deads []*domain.DeadBatch
	q := queue.NewMemQueue(16)
	p, err := New(testController(t, 1, 64), q, proc, drainPolicy(), Options{
		OnDeadBatch: func(db *domain.DeadBatch) { deads = append(deads, db) },
	})
	require.NoError(t, err)

	q.Enqueue(1, sample(1))
	assert.True(t, p.ProcessBatch())

	assert.Equal(t, int32(1), invocations.Load())
	require.Len(t, deads, 1)
	assert.Equal(t, 1, deads[0].Attempts)
	assert.Equal(t, string(domain.ProcessingFatal), deads[0].Kind)
}

func TestProcessBatchEmptyQueueNoOp(t *testing.T) {
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		return batch, nil
	}
	p, err := New(testController(t, 2, 64), queue.NewMemQueue(16), proc, drainPolicy(), Options{})
	require.NoError(t, err)

	assert.False(t, p.ProcessBatch())
}

func TestSecondCallDuringFlightIsNoOp(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		close(entered)
		<-release
		return batch, nil
	}

	q := queue.NewMemQueue(16)
	p, err := New(testController(t, 1, 64), q, proc, drainPolicy(), Options{})
	require.NoError(t, err)

	q.Enqueue(1, sample(1))

	done := make(chan bool, 1)
	go func() { done <- p.ProcessBatch() }()

	<-entered
	assert.True(t, p.GetStatus().IsProcessing)
	assert.False(t, p.ProcessBatch())

	close(release)
	assert.True(t, <-done)
}

func TestCloseDiscardDropsQueue(t *testing.T) {
	var invocations atomic.Int32
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		invocations.Add(1)
		return batch, nil
	}

	q := queue.NewMemQueue(16)
	p, err := New(testController(t, 64, 64), q, proc, ports.Policy{
		OnShutdown:     ports.ShutdownDiscard,
		ProcessTimeout: time.Second,
	}, Options{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.AddItem(sample(i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, int32(0), invocations.Load())

	assert.ErrorIs(t, p.AddItem(sample(99)), ErrClosed)
}

func TestRejectPolicyReturnsQueueFull(t *testing.T) {
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		return batch, nil
	}

	p, err := New(testController(t, 64, 64), queue.NewMemQueue(16), proc, ports.Policy{
		MaxQueueLen:    2,
		OnQueueFull:    ports.QueueFullReject,
		OnShutdown:     ports.ShutdownDrain,
		ProcessTimeout: time.Second,
	}, Options{})
	require.NoError(t, err)

	require.NoError(t, p.AddItem(sample(1)))
	require.NoError(t, p.AddItem(sample(2)))
	assert.ErrorIs(t, p.AddItem(sample(3)), ErrQueueFull)
}

func TestAccuracyReflectsPartialResults(t *testing.T) {
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		return batch[:len(batch)/2], nil
	}

	q := queue.NewMemQueue(16)
	p, err := New(testController(t, 4, 64), q, proc, drainPolicy(), Options{})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		q.Enqueue(uint64(i), sample(i))
	}
	require.True(t, p.ProcessBatch())

	summary := p.Performance()
	assert.Equal(t, 1, summary.Samples)
	assert.InDelta(t, 0.5, summary.AccuracyMean, 1e-9)
}

func TestInvalidShutdownPolicyRejected(t *testing.T) {
	proc := func(ctx context.Context, batch []*domain.Sample) ([]*domain.Sample, error) {
		return batch, nil
	}

	_, err := New(testController(t, 1, 64), queue.NewMemQueue(16), proc, ports.Policy{}, Options{})
	var ce *domain.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "policy.on_shutdown", ce.Field)
}
