package flowkey

import "net"

// TwoTuple identifies a flow by source and destination IP.
type TwoTuple struct {
	srcIP, dstIP [ipSize]byte
}

// NewTwoTuple builds a TwoTuple key from source/destination IP addresses.
func NewTwoTuple(srcIP, dstIP net.IP) TwoTuple {
	return TwoTuple{srcIP: copyIP(srcIP), dstIP: copyIP(dstIP)}
}

func (k TwoTuple) Bytes() []byte {
	b := make([]byte, 2*ipSize)
	copy(b[0:ipSize], k.srcIP[:])
	copy(b[ipSize:2*ipSize], k.dstIP[:])
	return b
}

func (k TwoTuple) Equal(other Key) bool {
	o, ok := other.(TwoTuple)
	return ok && k.srcIP == o.srcIP && k.dstIP == o.dstIP
}

func (k TwoTuple) IsNull() bool {
	return k.srcIP == [ipSize]byte{} && k.dstIP == [ipSize]byte{}
}

func (k TwoTuple) String() string {
	return net.IP(k.srcIP[:]).String() + "->" + net.IP(k.dstIP[:]).String()
}

// TwoTupleFromBytes decodes a TwoTuple from its fixed-width encoding.
func TwoTupleFromBytes(b []byte) TwoTuple {
	var k TwoTuple
	copy(k.srcIP[:], b[0:ipSize])
	copy(k.dstIP[:], b[ipSize:2*ipSize])
	return k
}
