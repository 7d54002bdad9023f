package flowkey

import (
	"net"
)

// OneTuple identifies a flow by source IP only.
type OneTuple struct {
	srcIP [ipSize]byte
}

// NewOneTuple builds a OneTuple key from a source IP address.
func NewOneTuple(srcIP net.IP) OneTuple {
	return OneTuple{srcIP: copyIP(srcIP)}
}

func (k OneTuple) Bytes() []byte {
	b := make([]byte, ipSize)
	copy(b, k.srcIP[:])
	return b
}

func (k OneTuple) Equal(other Key) bool {
	o, ok := other.(OneTuple)
	return ok && k.srcIP == o.srcIP
}

func (k OneTuple) IsNull() bool {
	return k.srcIP == [ipSize]byte{}
}

func (k OneTuple) String() string {
	return net.IP(k.srcIP[:]).String()
}

// OneTupleFromBytes decodes a OneTuple from its fixed-width encoding, the
// inverse of Bytes().
func OneTupleFromBytes(b []byte) OneTuple {
	var k OneTuple
	copy(k.srcIP[:], b)
	return k
}
