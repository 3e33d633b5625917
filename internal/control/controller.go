package control

import (
	"math"
	"sync"
	"time"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

// Gamma is the multiplicative gain bounding how aggressively the batch size
// expands or contracts per adjustment. When adaptive gain is enabled it
// drifts inside [GammaMin, GammaMax] following observed latency.
const (
	GammaMin = 1.1
	GammaMax = 2.5

	// ewmaAlpha is the smoothing constant for the adaptive gain update.
	ewmaAlpha = 0.2

	// One observation may not move gamma across its whole range: the
	// latency ratio feeding the EWMA is clamped to this band first.
	ratioFloor = 0.25
	ratioCeil  = 4.0

	defaultHistoryWindow = 10
)

// Adjust computes the next batch size from the latest observed latency.
// It is a pure function: running faster than target expands the batch by
// gamma, running slower contracts it by gamma, hitting target leaves it
// unchanged. The result is always clamped to [minBatch, maxBatch], so
// repeated expansion at maxBatch (or contraction at minBatch) is idempotent.
func Adjust(current int, observed, target time.Duration, minBatch, maxBatch int, gamma float64) int {
	switch {
	case observed < target:
		return clampInt(int(math.Round(float64(current)*gamma)), minBatch, maxBatch)
	case observed > target:
		return clampInt(int(math.Floor(float64(current)/gamma)), minBatch, maxBatch)
	default:
		return clampInt(current, minBatch, maxBatch)
	}
}

// Config carries the construction-time parameters of a Controller.
type Config struct {
	MinBatch      int
	MaxBatch      int
	InitialBatch  int
	TargetLatency time.Duration
	AdaptiveGain  bool
	InitialGamma  float64
	HistoryWindow int
}

// Summary is a read-only snapshot of the controller state, shaped for
// serialization to monitoring collaborators.
type Summary struct {
	CurrentBatch       int     `json:"current_batch"`
	Gamma              float64 `json:"gamma"`
	Adjustments        int     `json:"adjustments"`
	HistoryLen         int     `json:"history_len"`
	ThroughputEstimate float64 `json:"throughput_estimate"`
}

// Controller owns the batch-size control loop state. All mutation happens
// inside a single serialized adjustment call; reads take the same lock.
type Controller struct {
	mu sync.Mutex

	minBatch      int
	maxBatch      int
	target        time.Duration
	adaptive      bool
	historyWindow int

	current     int
	gamma       float64
	adjustments int
	history     []domain.BatchMetrics
}

// New validates the configuration and builds a controller. Invalid bounds,
// a non-positive latency target, or an out-of-range initial gamma are
// construction-time ConfigErrors, never retried.
func New(cfg Config) (*Controller, error) {
	if cfg.MinBatch <= 0 {
		return nil, domain.NewConfigError("controller.min_batch_size", "must be > 0, got %d", cfg.MinBatch)
	}
	if cfg.MinBatch > cfg.MaxBatch {
		return nil, domain.NewConfigError("controller.max_batch_size", "min %d exceeds max %d", cfg.MinBatch, cfg.MaxBatch)
	}
	if cfg.TargetLatency <= 0 {
		return nil, domain.NewConfigError("controller.target_latency", "must be > 0, got %s", cfg.TargetLatency)
	}
	gamma := cfg.InitialGamma
	if gamma == 0 {
		gamma = GammaMin + (GammaMax-GammaMin)/2
	}
	if gamma < GammaMin || gamma > GammaMax {
		return nil, domain.NewConfigError("controller.gamma", "must be in [%.1f, %.1f], got %g", GammaMin, GammaMax, cfg.InitialGamma)
	}
	window := cfg.HistoryWindow
	if window <= 0 {
		window = defaultHistoryWindow
	}
	initial := cfg.InitialBatch
	if initial == 0 {
		initial = cfg.MinBatch
	}

	return &Controller{
		minBatch:      cfg.MinBatch,
		maxBatch:      cfg.MaxBatch,
		target:        cfg.TargetLatency,
		adaptive:      cfg.AdaptiveGain,
		historyWindow: window,
		current:       clampInt(initial, cfg.MinBatch, cfg.MaxBatch),
		gamma:         gamma,
	}, nil
}

// AdjustBatchSize feeds one completed-batch observation into the control
// loop and returns the new batch size. With adaptive gain enabled the gamma
// is nudged by an EWMA of the target/observed latency ratio first: fast
// batches push it up, slow batches push it down, always clamped to
// [GammaMin, GammaMax]. The triggering metrics land in the bounded history,
// oldest evicted first; insertion order is completion order.
func (c *Controller) AdjustBatchSize(m domain.BatchMetrics) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.adaptive {
		c.gamma = c.nextGammaLocked(m.ProcessingTime)
	}

	c.current = Adjust(c.current, m.ProcessingTime, c.target, c.minBatch, c.maxBatch, c.gamma)
	c.appendHistoryLocked(m)
	c.adjustments++
	return c.current
}

func (c *Controller) nextGammaLocked(observed time.Duration) float64 {
	ratio := ratioCeil
	if observed > 0 {
		ratio = float64(c.target) / float64(observed)
	}
	if ratio < ratioFloor {
		ratio = ratioFloor
	}
	if ratio > ratioCeil {
		ratio = ratioCeil
	}
	// gamma * (1-α) + gamma*ratio * α: a ratio above 1 (faster than target)
	// raises the gain, below 1 lowers it.
	next := c.gamma * (1 - ewmaAlpha + ewmaAlpha*ratio)
	if next < GammaMin {
		return GammaMin
	}
	if next > GammaMax {
		return GammaMax
	}
	return next
}

func (c *Controller) appendHistoryLocked(m domain.BatchMetrics) {
	c.history = append(c.history, m)
	if len(c.history) > c.historyWindow {
		c.history = c.history[len(c.history)-c.historyWindow:]
	}
}

// CurrentBatchSize returns the batch size decided by the last adjustment.
func (c *Controller) CurrentBatchSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// TargetLatency returns the configured latency target.
func (c *Controller) TargetLatency() time.Duration {
	return c.target
}

// Summary snapshots the controller. The throughput estimate is the mean
// batch_size/processing_time over the retained history.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	var throughput float64
	if n := len(c.history); n > 0 {
		var sum float64
		for _, m := range c.history {
			if m.ProcessingTime > 0 {
				sum += float64(m.BatchSize) / m.ProcessingTime.Seconds()
			}
		}
		throughput = sum / float64(n)
	}

	return Summary{
		CurrentBatch:       c.current,
		Gamma:              c.gamma,
		Adjustments:        c.adjustments,
		HistoryLen:         len(c.history),
		ThroughputEstimate: throughput,
	}
}

func clampInt(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
