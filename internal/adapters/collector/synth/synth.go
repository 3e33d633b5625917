// Package synth generates paced synthetic samples for demos and load tests,
// standing in for acquisition hardware.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

// Config shapes the generated stream.
type Config struct {
	StreamID      string   `yaml:"stream_id"`
	Channels      []string `yaml:"channels"`
	SamplesPerSec float64  `yaml:"samples_per_sec"`
	// QualityJitter adds uniform noise of this amplitude to the base
	// quality of 0.9 (clamped to [0, 1]).
	QualityJitter float64 `yaml:"quality_jitter"`
}

func (c *Config) ApplyDefaults() {
	if c.StreamID == "" {
		c.StreamID = "synthetic"
	}
	if len(c.Channels) == 0 {
		c.Channels = []string{"c3", "c4", "cz"}
	}
	if c.SamplesPerSec <= 0 {
		c.SamplesPerSec = 256
	}
	if c.QualityJitter < 0 {
		c.QualityJitter = 0
	}
}

// Collector emits sine-composed frames at the configured rate.
type Collector struct {
	cfg     Config
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

func NewCollector(cfg Config) *Collector {
	cfg.ApplyDefaults()
	return &Collector{cfg: cfg}
}

func (c *Collector) Start(out chan<- *domain.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("synthetic collector already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true

	c.wg.Add(1)
	go c.generate(ctx, out)
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.started = false
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	return nil
}

func (c *Collector) generate(ctx context.Context, out chan<- *domain.Sample) {
	defer c.wg.Done()

	limiter := rate.NewLimiter(rate.Limit(c.cfg.SamplesPerSec), 1)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var seq uint64
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		seq++

		t := float64(seq) / c.cfg.SamplesPerSec
		channels := make(map[string]float64, len(c.cfg.Channels))
		for i, ch := range c.cfg.Channels {
			// 10 Hz base with a per-channel phase offset and noise
			channels[ch] = math.Sin(2*math.Pi*10*t+float64(i)) + rng.NormFloat64()*0.05
		}

		quality := 0.9
		if c.cfg.QualityJitter > 0 {
			quality += (rng.Float64()*2 - 1) * c.cfg.QualityJitter
		}
		if quality < 0 {
			quality = 0
		}
		if quality > 1 {
			quality = 1
		}

		sample := &domain.Sample{
			StreamID:  c.cfg.StreamID,
			Timestamp: time.Now(),
			Seq:       seq,
			Channels:  channels,
			Quality:   quality,
			SourceID:  "synth",
		}

		select {
		case <-ctx.Done():
			return
		case out <- sample:
		}
	}
}
