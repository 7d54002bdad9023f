package metrics

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"sketchbench/internal/config"
)

// EpochSummary is the JSON payload published to NATS for one epoch: every
// sketch's result plus the epoch's own size.
type EpochSummary struct {
	EpochIndex  int      `json:"epoch_index"`
	PacketCount int      `json:"packet_count"`
	Threshold   uint64   `json:"threshold"`
	Results     []Result `json:"results"`
}

// Publisher publishes epoch summaries to a NATS subject as JSON. The
// reference tool's equivalent publisher serializes to Protobuf; this one
// uses JSON since no .proto definitions for this payload exist to generate
// bindings from (see DESIGN.md).
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher connects to the configured NATS server.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("metrics: connect to nats: %w", err)
	}
	log.Printf("metrics: connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// PublishEpoch serializes and publishes one epoch's summary.
func (p *Publisher) PublishEpoch(epochIndex, packetCount int, threshold uint64, results []Result) error {
	data, err := json.Marshal(EpochSummary{
		EpochIndex:  epochIndex,
		PacketCount: packetCount,
		Threshold:   threshold,
		Results:     results,
	})
	if err != nil {
		return fmt.Errorf("metrics: marshal epoch summary: %w", err)
	}
	return p.nc.Publish(p.subject, data)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("metrics: NATS connection drained and closed")
	}
}
