// Package config loads the venturid YAML configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/collector/opcua"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/adapters/collector/synth"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/control"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/domain"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/gates"
	"github.com/SergiLIFE/SergiLIFE-life-azure-system-sub007/internal/ports"
)

const (
	CollectorOPCUA     = "opcua"
	CollectorSynthetic = "synthetic"
)

// Duration supports YAML parsing from strings like "100ms" or plain numbers
// (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = 0
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Gates      []gates.Config   `yaml:"gates"`
	Backend    string           `yaml:"gate_backend"`
	Policy     PolicyConfig     `yaml:"policy"`
	Collector  CollectorConfig  `yaml:"collector"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	DeadLetter DeadLetterConfig `yaml:"deadletter"`
}

type ControllerConfig struct {
	MinBatchSize  int      `yaml:"min_batch_size"`
	MaxBatchSize  int      `yaml:"max_batch_size"`
	InitialBatch  int      `yaml:"initial_batch_size"`
	TargetLatency Duration `yaml:"target_latency"`
	AdaptiveGain  bool     `yaml:"adaptive_gain"`
	InitialGamma  float64  `yaml:"initial_gamma"`
	HistoryWindow int      `yaml:"history_window_size"`
}

// Control maps the YAML shape onto the controller's constructor config.
func (c ControllerConfig) Control() control.Config {
	return control.Config{
		MinBatch:      c.MinBatchSize,
		MaxBatch:      c.MaxBatchSize,
		InitialBatch:  c.InitialBatch,
		TargetLatency: c.TargetLatency.Duration(),
		AdaptiveGain:  c.AdaptiveGain,
		InitialGamma:  c.InitialGamma,
		HistoryWindow: c.HistoryWindow,
	}
}

type PolicyConfig struct {
	MaxQueueLen    int      `yaml:"max_queue_len"`
	OnQueueFull    string   `yaml:"on_queue_full"`
	IdleSleep      Duration `yaml:"idle_sleep"`
	ProcessTimeout Duration `yaml:"process_timeout"`
	OnShutdown     string   `yaml:"on_shutdown"`
}

// Ports maps the YAML shape onto the processor policy.
func (p PolicyConfig) Ports() ports.Policy {
	return ports.Policy{
		MaxQueueLen:    p.MaxQueueLen,
		OnQueueFull:    p.OnQueueFull,
		IdleSleep:      p.IdleSleep.Duration(),
		ProcessTimeout: p.ProcessTimeout.Duration(),
		OnShutdown:     p.OnShutdown,
	}
}

type CollectorConfig struct {
	Type      string       `yaml:"type"`
	OPCUA     OPCUAConfig  `yaml:"opcua"`
	Synthetic synth.Config `yaml:"synthetic"`
}

// OPCUAConfig is the YAML shape of the OPC UA collector configuration; it
// exists so interval fields parse as duration strings.
type OPCUAConfig struct {
	Endpoint         string             `yaml:"endpoint"`
	Username         string             `yaml:"username"`
	Password         string             `yaml:"password"`
	SecurityMode     string             `yaml:"security_mode"`
	SecurityPolicy   string             `yaml:"security_policy"`
	ApplicationName  string             `yaml:"application_name"`
	PublishInterval  Duration           `yaml:"publish_interval"`
	SamplingInterval Duration           `yaml:"sampling_interval"`
	Nodes            []opcua.NodeConfig `yaml:"nodes"`
}

// Collector maps the YAML shape onto the collector configuration.
func (o OPCUAConfig) Collector() opcua.Config {
	return opcua.Config{
		Endpoint:         o.Endpoint,
		Username:         o.Username,
		Password:         o.Password,
		SecurityMode:     o.SecurityMode,
		SecurityPolicy:   o.SecurityPolicy,
		ApplicationName:  o.ApplicationName,
		PublishInterval:  o.PublishInterval.Duration(),
		SamplingInterval: o.SamplingInterval.Duration(),
		Nodes:            o.Nodes,
	}
}

// OPCUACollector returns the collector configuration with defaults applied.
func (c *Config) OPCUACollector() opcua.Config {
	cc := c.Collector.OPCUA.Collector()
	cc.ApplyDefaults()
	return cc
}

type PostgresConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type DeadLetterConfig struct {
	Dir string `yaml:"dir"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Controller.MinBatchSize == 0 {
		c.Controller.MinBatchSize = 1
	}
	if c.Controller.MaxBatchSize == 0 {
		c.Controller.MaxBatchSize = 1024
	}
	if c.Controller.InitialBatch == 0 {
		c.Controller.InitialBatch = 32
	}
	if c.Controller.TargetLatency == 0 {
		c.Controller.TargetLatency = Duration(50 * time.Millisecond)
	}
	if c.Backend == "" {
		c.Backend = gates.BackendDeterministic
	}
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 100_000
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = Duration(25 * time.Millisecond)
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = ports.QueueFullBlock
	}
	if c.Policy.OnShutdown == "" {
		c.Policy.OnShutdown = ports.ShutdownDrain
	}
	if c.Collector.Type == "" {
		c.Collector.Type = CollectorSynthetic
	}
	if c.Postgres.Table == "" {
		c.Postgres.Table = "samples"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.DeadLetter.Dir == "" {
		c.DeadLetter.Dir = "./data/deadletter"
	}

	c.Collector.Synthetic.ApplyDefaults()
}

func (c *Config) validate() error {
	if c.Controller.TargetLatency <= 0 {
		return domain.NewConfigError("controller.target_latency", "must be > 0, got %s", c.Controller.TargetLatency.Duration())
	}
	if c.Controller.MinBatchSize > c.Controller.MaxBatchSize {
		return domain.NewConfigError("controller.max_batch_size", "min %d exceeds max %d",
			c.Controller.MinBatchSize, c.Controller.MaxBatchSize)
	}
	switch c.Backend {
	case gates.BackendDeterministic, gates.BackendAccelerated:
	default:
		return domain.NewConfigError("gate_backend", "unknown backend %q", c.Backend)
	}
	switch c.Policy.OnShutdown {
	case ports.ShutdownDrain, ports.ShutdownDiscard:
	default:
		return domain.NewConfigError("policy.on_shutdown", "must be %q or %q, got %q",
			ports.ShutdownDrain, ports.ShutdownDiscard, c.Policy.OnShutdown)
	}
	switch c.Collector.Type {
	case CollectorSynthetic:
	case CollectorOPCUA:
		cc := c.OPCUACollector()
		if err := cc.Validate(); err != nil {
			return domain.NewConfigError("collector.opcua", "%v", err)
		}
	default:
		return domain.NewConfigError("collector.type", "unknown collector %q", c.Collector.Type)
	}
	return nil
}
