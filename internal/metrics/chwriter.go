package metrics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"sketchbench/internal/config"
)

const createEpochMetricsTableStatement = `
CREATE TABLE IF NOT EXISTS epoch_metrics (
    Timestamp   DateTime,
    SketchName  String,
    EpochIndex  UInt32,
    Precision   Float64,
    Recall      Float64,
    F1Score     Float64,
    Accuracy    Float64,
    ARE         Float64,
    AAE         Float64,
    WMRE        Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (SketchName, EpochIndex);
`

// ClickHouseWriter persists per-epoch metrics rows to ClickHouse, one row
// per sketch per epoch.
type ClickHouseWriter struct {
	conn chdriver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the epoch_metrics
// table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connectClickHouse(cfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createEpochMetricsTableStatement); err != nil {
		return nil, fmt.Errorf("metrics: create epoch_metrics table: %w", err)
	}
	log.Println("metrics: connected to ClickHouse and ensured epoch_metrics table exists")

	return &ClickHouseWriter{conn: conn}, nil
}

func connectClickHouse(cfg config.ClickHouseConfig) (chdriver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return conn, nil
}

// WriteEpoch appends one row per sketch result for a single epoch.
func (w *ClickHouseWriter) WriteEpoch(epochIndex int, results []Result) error {
	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO epoch_metrics")
	if err != nil {
		return fmt.Errorf("metrics: prepare batch: %w", err)
	}

	now := time.Now()
	for _, r := range results {
		err := batch.Append(
			now,
			r.SketchName,
			uint32(epochIndex),
			r.Precision(),
			r.Recall(),
			r.F1Score(),
			r.Accuracy(),
			r.Error.ARE,
			r.Error.AAE,
			r.Error.WMRE,
		)
		if err != nil {
			return fmt.Errorf("metrics: append row for %s: %w", r.SketchName, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("metrics: send batch: %w", err)
	}
	log.Printf("metrics: wrote %d rows to ClickHouse for epoch %d", len(results), epochIndex)
	return nil
}

// Close releases the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
