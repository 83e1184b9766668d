package wire

import (
	"strings"
	"testing"
)

func TestEncodeRequest_ParseRequest(t *testing.T) {
	t.Parallel()

	for _, seq := range []uint32{0, 1, 42, 4294967295} {
		payload := EncodeRequest(seq)
		got, ok := ParseRequest(payload)
		if !ok || got != seq {
			t.Fatalf("ParseRequest(%q) = %d,%v, want %d,true", payload, got, ok, seq)
		}
	}
}

func TestEncodeAck_EchoesRequestPayload(t *testing.T) {
	t.Parallel()

	// The responder's ack is the request payload prefixed with "ACK:".
	if got, want := string(EncodeAck(7)), "ACK:"+string(EncodeRequest(7)); got != want {
		t.Fatalf("EncodeAck(7) = %q, want %q", got, want)
	}
	seq, ok := ParseAck(EncodeAck(7))
	if !ok || seq != 7 {
		t.Fatalf("ParseAck(EncodeAck(7)) = %d,%v", seq, ok)
	}
}

func TestParseRequest_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"wrong marker", "PONG 3"},
		{"missing seq", "PING "},
		{"no space", "PING3"},
		{"non numeric seq", "PING abc"},
		{"negative seq", "PING -1"},
		{"seq overflow", "PING 4294967296"},
		{"trailing garbage", "PING 3 extra"},
		{"ack is not a request", "ACK:PING 3"},
		{"oversized", "PING " + strings.Repeat("9", MaxPayload)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if seq, ok := ParseRequest([]byte(tt.payload)); ok {
				t.Fatalf("ParseRequest(%q) = %d,true, want ok=false", tt.payload, seq)
			}
		})
	}
}

func TestParseAck_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"plain request", "PING 3"},
		{"bad inner payload", "ACK:PONG 3"},
		{"missing inner seq", "ACK:PING "},
		{"binary noise", "\x00\x01\x02\x03"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if seq, ok := ParseAck([]byte(tt.payload)); ok {
				t.Fatalf("ParseAck(%q) = %d,true, want ok=false", tt.payload, seq)
			}
		})
	}
}
