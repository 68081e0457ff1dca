package domain

import "strings"

// ProtocolClass classifies how a stream endpoint is delivered.
type ProtocolClass int

const (
	// ProtocolDirect is a progressive download that supports start offsets.
	ProtocolDirect ProtocolClass = iota
	// ProtocolSegmented is a segmented playlist (HLS) that cannot be resumed at an offset.
	ProtocolSegmented
	// ProtocolRelay is a real-time relay (RTMP, RTSP, MMS).
	ProtocolRelay
)

// ClassifyProtocol maps a resolver protocol string (e.g. "https", "m3u8_native")
// to a ProtocolClass. An empty protocol is treated as direct.
func ClassifyProtocol(protocol string) ProtocolClass {
	p := strings.ToLower(protocol)
	switch {
	case strings.Contains(p, "m3u8"), strings.Contains(p, "hls"):
		return ProtocolSegmented
	case strings.Contains(p, "rtmp"), strings.Contains(p, "rtsp"), strings.HasPrefix(p, "mms"):
		return ProtocolRelay
	default:
		return ProtocolDirect
	}
}

// Resumable reports whether audio delivered over this protocol can be
// restarted at an arbitrary offset.
func (p ProtocolClass) Resumable() bool {
	return p == ProtocolDirect
}

// String returns the string representation of the protocol class.
func (p ProtocolClass) String() string {
	switch p {
	case ProtocolSegmented:
		return "segmented"
	case ProtocolRelay:
		return "relay"
	default:
		return "direct"
	}
}
