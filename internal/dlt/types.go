package dlt

import "strings"

// MessageType is the MSTP field of the extended header info byte.
type MessageType uint8

const (
	TypeLog      MessageType = 0
	TypeAppTrace MessageType = 1
	TypeNetTrace MessageType = 2
	TypeControl  MessageType = 3
)

// Control subtypes carried in MTIN when MSTP is TypeControl.
const (
	ControlRequest  uint8 = 1
	ControlResponse uint8 = 2
)

// LogLevel is the MTIN field for TypeLog messages.
type LogLevel uint8

const (
	LevelFatal   LogLevel = 1
	LevelError   LogLevel = 2
	LevelWarn    LogLevel = 3
	LevelInfo    LogLevel = 4
	LevelDebug   LogLevel = 5
	LevelVerbose LogLevel = 6
)

func (l LogLevel) Valid() bool {
	return l >= LevelFatal && l <= LevelVerbose
}

func (l LogLevel) String() string {
	switch l {
	case LevelFatal:
		return "fatal"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelVerbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// ID is a fixed-width 4-character identifier (ECU, application, context).
// Shorter names are space-padded on the wire.
type ID [4]byte

// MakeID builds an ID from at most four ASCII characters. Longer input
// is truncated.
func MakeID(s string) ID {
	var id ID
	copy(id[:], s)
	for i := len(s); i < len(id); i++ {
		id[i] = ' '
	}
	return id
}

// IsZero reports whether no identifier is set.
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	return strings.TrimRight(strings.TrimRight(string(id[:]), "\x00"), " ")
}
