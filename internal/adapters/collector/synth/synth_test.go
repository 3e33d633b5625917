package synth

import (
	"testing"
	"time"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
)

func TestSyntheticCollectorEmitsSamples(t *testing.T) {
	col := NewCollector(Config{StreamID: "test", SamplesPerSec: 2000, QualityJitter: 0.05})

	out := make(chan *domain.Sample, 16)
	if err := col.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer col.Stop()

	var got []*domain.Sample
	deadline := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case s := <-out:
			got = append(got, s)
		case <-deadline:
			t.Fatalf("timed out waiting for samples, got %d", len(got))
		}
	}

	var prev uint64
	for _, s := range got {
		if s.StreamID != "test" {
			t.Fatalf("unexpected stream id %q", s.StreamID)
		}
		if s.Seq <= prev {
			t.Fatalf("sequence not increasing: %d after %d", s.Seq, prev)
		}
		prev = s.Seq
		if len(s.Channels) == 0 {
			t.Fatalf("expected channel values")
		}
		if s.Quality < 0 || s.Quality > 1 {
			t.Fatalf("quality out of range: %f", s.Quality)
		}
	}
}

func TestSyntheticCollectorStartTwice(t *testing.T) {
	col := NewCollector(Config{})
	out := make(chan *domain.Sample, 1)
	if err := col.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer col.Stop()

	if err := col.Start(out); err == nil {
		t.Fatalf("expected error on double start")
	}
}
