package domain

import "time"

// Sample is the canonical unit of streamed telemetry in the Venturi layer.
// Channels carries one acquisition frame's per-channel readings (e.g. EEG
// electrode voltages keyed by channel label).
type Sample struct {
	StreamID  string             `json:"stream_id"`
	Timestamp time.Time          `json:"ts"`
	Seq       uint64             `json:"seq"`
	Channels  map[string]float64 `json:"channels"`
	Quality   float64            `json:"quality"`
	SourceID  string             `json:"source_id"`
}
