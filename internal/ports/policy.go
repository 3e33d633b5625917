package ports

import "time"

// Queue admission and shutdown policies.
const (
	QueueFullBlock  = "block"
	QueueFullDrop   = "drop"
	QueueFullReject = "reject"

	ShutdownDrain   = "drain"
	ShutdownDiscard = "discard"
)

// Policy controls queue admission, the processing deadline, and what happens
// to queued-but-undispatched items at shutdown. OnShutdown is an explicit
// choice; the processor refuses to construct with an empty or unknown value
// so the drain-vs-discard decision is never silently ambiguous.
type Policy struct {
	MaxQueueLen    int           `yaml:"max_queue_len"`
	OnQueueFull    string        `yaml:"on_queue_full"`
	IdleSleep      time.Duration `yaml:"idle_sleep"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	OnShutdown     string        `yaml:"on_shutdown"`
}
