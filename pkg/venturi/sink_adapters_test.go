package venturi

import (
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []Sample
	sink := NewCallbackSink("cb", func(batch []Sample) error {
		received = append(received, batch...)
		return nil
	})

	input := Sample{
		StreamID:  "eeg-1",
		Timestamp: time.Unix(1, 0),
		Seq:       42,
		Channels:  map[string]float64{"c3": 3.14},
		Quality:   0.9,
	}

	if err := sink.WriteBatch([]*PipelineSample{input.toDomain()}); err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 batch entry, got %d", len(received))
	}
	got := received[0]
	if got.StreamID != input.StreamID || got.Seq != input.Seq {
		t.Fatalf("mismatched sample payload: %+v vs %+v", got, input)
	}
	if got.Channels["c3"] != 3.14 {
		t.Fatalf("expected channel value to be copied, got %v", got.Channels["c3"])
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	s := Sample{StreamID: "s"}
	if err := sink.WriteBatch([]*PipelineSample{s.toDomain()}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	input := Sample{StreamID: "eeg-2", Seq: 7}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.WriteBatch([]*PipelineSample{input.toDomain()})
	}()

	var batch []Sample
	select {
	case batch = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel batch")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("WriteBatch returned error: %v", err)
	}
	if len(batch) != 1 || batch[0].StreamID != input.StreamID {
		t.Fatalf("unexpected batch data: %+v", batch)
	}

	closeFn()
	if err := sink.WriteBatch([]*PipelineSample{input.toDomain()}); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}
