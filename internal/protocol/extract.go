// Package protocol extracts flow keys from decoded packets using gopacket.
package protocol

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"sketchbench/internal/flowkey"
)

// Record pairs an extracted flow key with the packet's capture timestamp,
// the unit internal/epoch groups into windows.
type Record struct {
	Flow      flowkey.Key
	Timestamp time.Time
}

// Extract decodes an Ethernet frame and builds a flow key of the requested
// kind. It returns an error for non-IPv4 packets, or for five-tuple
// extraction when the transport layer is neither TCP nor UDP, mirroring the
// extraction rules the reference implementation applies per flow-key
// specialization.
func Extract(data []byte, kind flowkey.Kind) (flowkey.Key, time.Time, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)

	ts := time.Now()
	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		ts = meta.Timestamp
	}

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return nil, ts, fmt.Errorf("protocol: not an IPv4 packet")
	}
	ip := ipLayer.(*layers.IPv4)

	switch kind {
	case flowkey.OneTupleKind:
		return flowkey.NewOneTuple(ip.SrcIP), ts, nil
	case flowkey.TwoTupleKind:
		return flowkey.NewTwoTuple(ip.SrcIP, ip.DstIP), ts, nil
	case flowkey.FiveTupleKind:
		var srcPort, dstPort uint16
		if l := packet.Layer(layers.LayerTypeTCP); l != nil {
			tcp := l.(*layers.TCP)
			srcPort, dstPort = uint16(tcp.SrcPort), uint16(tcp.DstPort)
		} else if l := packet.Layer(layers.LayerTypeUDP); l != nil {
			udp := l.(*layers.UDP)
			srcPort, dstPort = uint16(udp.SrcPort), uint16(udp.DstPort)
		} else {
			return nil, ts, fmt.Errorf("protocol: not a TCP or UDP packet")
		}
		return flowkey.NewFiveTuple(ip.SrcIP, ip.DstIP, srcPort, dstPort, uint8(ip.Protocol)), ts, nil
	default:
		return nil, ts, fmt.Errorf("protocol: unknown flow key kind %v", kind)
	}
}
