package venturi

import (
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/collector/opcua"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/collector/synth"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// ControllerConfig bounds the batch-size control loop.
	ControllerConfig = config.ControllerConfig
	// Policy controls queue admission, processing deadline, and shutdown.
	Policy = config.PolicyConfig
	// CollectorConfig selects and configures the sample source.
	CollectorConfig = config.CollectorConfig
	// OPCUAConfig holds connection + node details.
	OPCUAConfig = config.OPCUAConfig
	// OPCUANodeConfig describes a monitored tag.
	OPCUANodeConfig = opcua.NodeConfig
	// SyntheticConfig shapes the paced generator used for demos/load tests.
	SyntheticConfig = synth.Config
	// PostgresConfig configures the default batch sink.
	PostgresConfig = config.PostgresConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// DeadLetterConfig configures the on-disk dead-letter journal.
	DeadLetterConfig = config.DeadLetterConfig
	// Duration parses YAML duration strings like "50ms".
	Duration = config.Duration
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
