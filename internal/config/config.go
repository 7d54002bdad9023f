// Package config loads the YAML configuration driving a benchmark run:
// which flow-key variant to measure, the shared memory budget, epoch
// width, heavy-hitter threshold, per-sketch knobs, and optional output
// sinks.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CountMinConfig holds CountMin's row count; width is derived from the
// shared memory budget at construction time.
type CountMinConfig struct {
	Rows uint32 `yaml:"rows"`
}

// CountSketchConfig holds CountSketch's row count.
type CountSketchConfig struct {
	Rows uint32 `yaml:"rows"`
}

// ElasticSketchConfig holds ElasticSketch's heavy-part sizing and contest
// threshold.
type ElasticSketchConfig struct {
	HeavyMemoryBytes uint64 `yaml:"heavy_memory_bytes"`
	Lambda           uint32 `yaml:"lambda"`
	LightRows        uint32 `yaml:"light_rows"`
}

// HashPipeConfig holds HashPipe's pipeline depth.
type HashPipeConfig struct {
	NumStages uint32 `yaml:"num_stages"`
}

// UnivMonConfig holds UnivMon's cascade depth and rows per level.
type UnivMonConfig struct {
	NumLayers    uint32 `yaml:"num_layers"`
	RowsPerLevel uint32 `yaml:"rows_per_level"`
}

// SketchLearnConfig holds SketchLearn's row count.
type SketchLearnConfig struct {
	Rows uint32 `yaml:"rows"`
}

// FlowRadarConfig holds FlowRadar's Bloom filter / counting table split.
type FlowRadarConfig struct {
	BFPercentage float64 `yaml:"bf_percentage"`
	BFNumHashes  uint32  `yaml:"bf_num_hashes"`
	CTNumHashes  uint32  `yaml:"ct_num_hashes"`
}

// SketchParams groups every sketch's tunable parameters, distinct from the
// shared memory budget they all draw from.
type SketchParams struct {
	CountMin     CountMinConfig      `yaml:"count_min"`
	CountSketch  CountSketchConfig   `yaml:"count_sketch"`
	Elastic      ElasticSketchConfig `yaml:"elastic_sketch"`
	HashPipe     HashPipeConfig      `yaml:"hash_pipe"`
	UnivMon      UnivMonConfig       `yaml:"univmon"`
	SketchLearn  SketchLearnConfig   `yaml:"sketch_learn"`
	FlowRadar    FlowRadarConfig     `yaml:"flow_radar"`
}

// ClickHouseConfig holds connection details for the optional ClickHouse
// metrics sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig holds connection details for the optional NATS metrics
// publisher.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// APIConfig holds the listen address for the optional HTTP results API.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// OutputConfig selects which optional sinks are active. Each is nil unless
// present in the YAML file.
type OutputConfig struct {
	ClickHouse *ClickHouseConfig `yaml:"clickhouse"`
	NATS       *NATSConfig       `yaml:"nats"`
	API        *APIConfig        `yaml:"api"`
}

// Config is the top-level configuration for a benchmark run.
type Config struct {
	PcapFile              string       `yaml:"pcap_file"`
	FlowKeyKind           string       `yaml:"flow_key_kind"`
	SketchMemoryBytes     uint64       `yaml:"sketch_memory_bytes"`
	EpochDurationMS       int          `yaml:"epoch_duration_ms"`
	HHThresholdPercentage float64      `yaml:"hh_threshold_percentage"`
	Sketches              SketchParams `yaml:"sketches"`
	Output                OutputConfig `yaml:"output"`
}

// Default returns the configuration the reference tool ships with (spec.md
// §9's defaults), used when no config file knob overrides a field.
func Default() Config {
	return Config{
		FlowKeyKind:           "two_tuple",
		SketchMemoryBytes:     600 * 1024,
		EpochDurationMS:       100,
		HHThresholdPercentage: 0.01,
		Sketches: SketchParams{
			CountMin:    CountMinConfig{Rows: 4},
			CountSketch: CountSketchConfig{Rows: 4},
			Elastic: ElasticSketchConfig{
				HeavyMemoryBytes: 300 * 1024,
				Lambda:           4,
				LightRows:        4,
			},
			HashPipe:    HashPipeConfig{NumStages: 8},
			UnivMon:     UnivMonConfig{NumLayers: 4, RowsPerLevel: 4},
			SketchLearn: SketchLearnConfig{Rows: 1},
			FlowRadar: FlowRadarConfig{
				BFPercentage: 0.3,
				BFNumHashes:  3,
				CTNumHashes:  3,
			},
		},
	}
}

// Load reads the configuration from a YAML file, starting from Default()
// so a file only needs to override what it cares about.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filePath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", filePath, err)
	}

	return &cfg, nil
}
