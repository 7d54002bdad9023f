// Package pcapsource reads a capture file and extracts flow-key records
// from it, one per IPv4 packet.
package pcapsource

import (
	"fmt"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"sketchbench/internal/flowkey"
	"sketchbench/internal/protocol"
)

// Reader reads packets from a pcap capture file, legacy or nanosecond
// format, little- or big-endian (gopacket/pcap detects the variant from the
// file's magic number).
type Reader struct {
	handle *pcap.Handle
}

// NewReader opens filePath for offline reading.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, fmt.Errorf("pcapsource: open %s: %w", filePath, err)
	}
	return &Reader{handle: handle}, nil
}

// Close releases the underlying pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// ReadAll decodes every packet in the capture, extracting a flow key of the
// given kind. Packets that fail extraction (non-IPv4, or a five-tuple
// request against a non-TCP/UDP packet) are logged and skipped rather than
// aborting the run, same as the reference parser's "invalid flow" rule
// except it logs the reason instead of silently dropping it.
func (r *Reader) ReadAll(kind flowkey.Kind) []protocol.Record {
	var records []protocol.Record

	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for pkt := range packetSource.Packets() {
		flow, ts, err := protocol.Extract(pkt.Data(), kind)
		if err != nil {
			log.Printf("pcapsource: skipping packet: %v", err)
			continue
		}
		if flow.IsNull() {
			continue
		}
		if meta := pkt.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
			ts = meta.Timestamp
		}
		records = append(records, protocol.Record{Flow: flow, Timestamp: ts})
	}

	return records
}
