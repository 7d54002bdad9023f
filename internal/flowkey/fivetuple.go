package flowkey

import (
	"net"
	"strconv"
)

// FiveTuple identifies a flow by source/destination IP, source/destination
// port, and IP protocol number.
type FiveTuple struct {
	srcIP, dstIP     [ipSize]byte
	srcPort, dstPort uint16
	protocol         uint8
}

// NewFiveTuple builds a FiveTuple key.
func NewFiveTuple(srcIP, dstIP net.IP, srcPort, dstPort uint16, protocol uint8) FiveTuple {
	return FiveTuple{
		srcIP:    copyIP(srcIP),
		dstIP:    copyIP(dstIP),
		srcPort:  srcPort,
		dstPort:  dstPort,
		protocol: protocol,
	}
}

func (k FiveTuple) Bytes() []byte {
	b := make([]byte, 2*ipSize+2*portSize+protoSize)
	off := 0
	copy(b[off:off+ipSize], k.srcIP[:])
	off += ipSize
	copy(b[off:off+ipSize], k.dstIP[:])
	off += ipSize
	putPort(b[off:off+portSize], k.srcPort)
	off += portSize
	putPort(b[off:off+portSize], k.dstPort)
	off += portSize
	b[off] = k.protocol
	return b
}

func (k FiveTuple) Equal(other Key) bool {
	o, ok := other.(FiveTuple)
	return ok && k == o
}

func (k FiveTuple) IsNull() bool {
	return k.srcIP == [ipSize]byte{} && k.dstIP == [ipSize]byte{} &&
		k.srcPort == 0 && k.dstPort == 0 && k.protocol == 0
}

func (k FiveTuple) String() string {
	return net.IP(k.srcIP[:]).String() + ":" + strconv.Itoa(int(k.srcPort)) +
		"->" + net.IP(k.dstIP[:]).String() + ":" + strconv.Itoa(int(k.dstPort)) +
		"/" + strconv.Itoa(int(k.protocol))
}

// FiveTupleFromBytes decodes a FiveTuple from its fixed-width encoding.
func FiveTupleFromBytes(b []byte) FiveTuple {
	var k FiveTuple
	off := 0
	copy(k.srcIP[:], b[off:off+ipSize])
	off += ipSize
	copy(k.dstIP[:], b[off:off+ipSize])
	off += ipSize
	k.srcPort = getPort(b[off : off+portSize])
	off += portSize
	k.dstPort = getPort(b[off : off+portSize])
	off += portSize
	k.protocol = b[off]
	return k
}
