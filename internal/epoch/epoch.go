// Package epoch groups a timestamp-ordered packet trace into fixed-width
// time windows, the unit of work the driver clears and re-measures sketches
// over.
package epoch

import (
	"sort"
	"time"

	"sketchbench/internal/protocol"
)

// Split sorts records by timestamp and partitions them into epochs of the
// given duration. A duration of 0 disables splitting: every record lands in
// a single epoch. Epochs that would otherwise be empty are omitted, so the
// returned slice always contains only non-empty windows (spec.md §3, §6;
// grounded on the reference parser's parse_pcap_with_epochs).
func Split(records []protocol.Record, duration time.Duration) [][]protocol.Record {
	sorted := make([]protocol.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if duration <= 0 {
		if len(sorted) == 0 {
			return nil
		}
		return [][]protocol.Record{sorted}
	}

	if len(sorted) == 0 {
		return nil
	}

	var result [][]protocol.Record
	current := make([]protocol.Record, 0)
	epochStart := sorted[0].Timestamp

	for _, rec := range sorted {
		for rec.Timestamp.Sub(epochStart) >= duration {
			if len(current) > 0 {
				result = append(result, current)
				current = nil
			}
			epochStart = epochStart.Add(duration)
		}
		current = append(current, rec)
	}
	if len(current) > 0 {
		result = append(result, current)
	}

	return result
}
