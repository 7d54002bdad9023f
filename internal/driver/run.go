// Package driver orchestrates a full benchmark run: constructing every
// sketch from config, clearing and re-feeding them epoch by epoch, and
// scoring each epoch against the Ideal reference.
package driver

import (
	"fmt"

	"sketchbench/internal/config"
	"sketchbench/internal/flowkey"
	"sketchbench/internal/metrics"
	"sketchbench/internal/protocol"
	"sketchbench/internal/sketch"
)

// namedSketch pairs a sketch under test with the name it is reported
// under, preserving the reference tool's fixed display order.
type namedSketch struct {
	name string
	s    sketch.Sketch
}

// Fleet holds the Ideal reference and every sketch under test for one run,
// all built from the same Config so they share a comparable memory budget.
type Fleet struct {
	ideal   *sketch.Ideal
	sketches []namedSketch
	kind    flowkey.Kind
}

// NewFleet constructs the Ideal reference plus one instance of every
// sketch named in spec.md §4, sized from cfg.
func NewFleet(cfg config.Config) (*Fleet, error) {
	kind, ok := flowkey.ParseKind(cfg.FlowKeyKind)
	if !ok {
		return nil, fmt.Errorf("driver: unknown flow_key_kind %q", cfg.FlowKeyKind)
	}
	keySize := uint32(kind.ByteSize())

	cm, err := sketch.NewCountMin(cfg.Sketches.CountMin.Rows, cfg.SketchMemoryBytes)
	if err != nil {
		return nil, fmt.Errorf("driver: build CountMin: %w", err)
	}
	cs, err := sketch.NewCountSketch(cfg.Sketches.CountSketch.Rows, cfg.SketchMemoryBytes)
	if err != nil {
		return nil, fmt.Errorf("driver: build CountSketch: %w", err)
	}
	es, err := sketch.NewElasticSketch(
		cfg.Sketches.Elastic.HeavyMemoryBytes,
		cfg.Sketches.Elastic.Lambda,
		cfg.SketchMemoryBytes,
		cfg.Sketches.Elastic.LightRows,
		keySize,
	)
	if err != nil {
		return nil, fmt.Errorf("driver: build ElasticSketch: %w", err)
	}
	hp, err := sketch.NewHashPipe(cfg.Sketches.HashPipe.NumStages, cfg.SketchMemoryBytes, keySize)
	if err != nil {
		return nil, fmt.Errorf("driver: build HashPipe: %w", err)
	}
	um, err := sketch.NewUnivMon(cfg.Sketches.UnivMon.NumLayers, cfg.SketchMemoryBytes, cfg.Sketches.UnivMon.RowsPerLevel)
	if err != nil {
		return nil, fmt.Errorf("driver: build UnivMon: %w", err)
	}
	sl, err := sketch.NewSketchLearn(cfg.Sketches.SketchLearn.Rows, cfg.SketchMemoryBytes)
	if err != nil {
		return nil, fmt.Errorf("driver: build SketchLearn: %w", err)
	}
	fr, err := sketch.NewFlowRadar(
		cfg.SketchMemoryBytes,
		cfg.Sketches.FlowRadar.BFPercentage,
		cfg.Sketches.FlowRadar.BFNumHashes,
		cfg.Sketches.FlowRadar.CTNumHashes,
		keySize,
	)
	if err != nil {
		return nil, fmt.Errorf("driver: build FlowRadar: %w", err)
	}

	return &Fleet{
		ideal: sketch.NewIdeal(),
		kind:  kind,
		sketches: []namedSketch{
			{"CountMin", cm},
			{"CountSketch", cs},
			{"ElasticSketch", es},
			{"HashPipe", hp},
			{"UnivMon", um},
			{"SketchLearn", sl},
			{"FlowRadar", fr},
		},
	}, nil
}

// Kind reports the flow-key variant the fleet was built for.
func (f *Fleet) Kind() flowkey.Kind {
	return f.kind
}

// RunEpoch clears every sketch in the fleet, feeds it the epoch's records
// in order, and scores each one against the Ideal reference at the given
// heavy-hitter threshold percentage (spec.md §3, §6).
func (f *Fleet) RunEpoch(epochIndex int, records []protocol.Record, hhThresholdPercentage float64) metrics.EpochReport {
	f.ideal.Clear()
	for _, ns := range f.sketches {
		ns.s.Clear()
	}

	for _, rec := range records {
		key := rec.Flow.Bytes()
		f.ideal.Update(key, 1)
		for _, ns := range f.sketches {
			ns.s.Update(key, 1)
		}
	}

	threshold := metrics.Threshold(f.ideal.TotalPackets(), hhThresholdPercentage)

	results := make([]metrics.Result, len(f.sketches))
	for i, ns := range f.sketches {
		results[i] = metrics.Evaluate(ns.name, f.ideal, ns.s, threshold)
	}

	return metrics.EpochReport{
		EpochIndex:  epochIndex,
		PacketCount: len(records),
		Threshold:   threshold,
		PerSketch:   results,
	}
}

// Names returns the sketch display names in their fixed report order.
func (f *Fleet) Names() []string {
	names := make([]string, len(f.sketches))
	for i, ns := range f.sketches {
		names[i] = ns.name
	}
	return names
}

// Average combines a run's per-epoch reports into one Result per sketch,
// averaged across every epoch (spec.md §7's cross-epoch summary).
func Average(epochs []metrics.EpochReport) []metrics.Result {
	if len(epochs) == 0 {
		return nil
	}

	numSketches := len(epochs[0].PerSketch)
	perSketch := make([][]metrics.Result, numSketches)
	for _, e := range epochs {
		for i, r := range e.PerSketch {
			perSketch[i] = append(perSketch[i], r)
		}
	}

	averages := make([]metrics.Result, numSketches)
	for i, rs := range perSketch {
		averages[i] = metrics.Average(rs)
	}
	return averages
}
