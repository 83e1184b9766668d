// Package wire defines the datagram payloads exchanged between prober and
// responder. Payloads are short ASCII strings: a request is "PING <seq>" and
// an acknowledgment echoes it as "ACK:PING <seq>". The sequence number is the
// only content that matters for correlation.
package wire

import (
	"strconv"
	"strings"
)

const (
	requestPrefix = "PING "
	ackPrefix     = "ACK:"
)

// MaxPayload bounds every datagram this protocol produces or accepts.
const MaxPayload = 512

// EncodeRequest builds the request payload for seq.
func EncodeRequest(seq uint32) []byte {
	return []byte(requestPrefix + strconv.FormatUint(uint64(seq), 10))
}

// EncodeAck builds the acknowledgment payload echoing seq.
func EncodeAck(seq uint32) []byte {
	return []byte(ackPrefix + requestPrefix + strconv.FormatUint(uint64(seq), 10))
}

// ParseRequest extracts the sequence number from a request payload.
// Anything that is not exactly a well-formed request yields ok=false.
func ParseRequest(payload []byte) (seq uint32, ok bool) {
	if len(payload) > MaxPayload {
		return 0, false
	}
	s := string(payload)
	if !strings.HasPrefix(s, requestPrefix) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[len(requestPrefix):], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ParseAck extracts the echoed sequence number from an acknowledgment payload.
func ParseAck(payload []byte) (seq uint32, ok bool) {
	if len(payload) > MaxPayload {
		return 0, false
	}
	s := string(payload)
	if !strings.HasPrefix(s, ackPrefix) {
		return 0, false
	}
	return ParseRequest([]byte(s[len(ackPrefix):]))
}
