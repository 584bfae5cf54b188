package dlt

import (
	"encoding/binary"

	"github.com/embworks/dltwire/internal/dlt/heap"
)

// LogConfig describes the headers of one outbound log message.
type LogConfig struct {
	ECUID     ID
	AppID     ID
	CtxID     ID
	Level     LogLevel
	Verbose   bool
	ArgCount  uint8
	Timestamp uint32
}

// LogConfigLen is the size of the packed config record accepted by
// ParseLogConfig.
const LogConfigLen = 24

// ParseLogConfig decodes the packed 24-byte config record used by
// callers that hand over pre-serialized configuration:
// ECU ID (0-3), App ID (4-7), Context ID (8-11), level (12),
// verbose flag (13), argument count (14), reserved (15),
// timestamp (16-19, little-endian), reserved (20-23).
func ParseLogConfig(buf []byte) (LogConfig, error) {
	if len(buf) < LogConfigLen {
		return LogConfig{}, ErrInvalidConfig
	}
	cfg := LogConfig{
		Level:     LogLevel(buf[12]),
		Verbose:   buf[13] != 0,
		ArgCount:  buf[14],
		Timestamp: binary.LittleEndian.Uint32(buf[16:20]),
	}
	copy(cfg.ECUID[:], buf[0:4])
	copy(cfg.AppID[:], buf[4:8])
	copy(cfg.CtxID[:], buf[8:12])
	if !cfg.Level.Valid() {
		return LogConfig{}, ErrInvalidConfig
	}
	return cfg, nil
}

// MarshalBinary encodes cfg into the packed 24-byte record layout.
func (cfg LogConfig) MarshalBinary() ([]byte, error) {
	if !cfg.Level.Valid() {
		return nil, ErrInvalidConfig
	}
	buf := make([]byte, LogConfigLen)
	copy(buf[0:4], cfg.ECUID[:])
	copy(buf[4:8], cfg.AppID[:])
	copy(buf[8:12], cfg.CtxID[:])
	buf[12] = byte(cfg.Level)
	if cfg.Verbose {
		buf[13] = 1
	}
	buf[14] = cfg.ArgCount
	binary.LittleEndian.PutUint32(buf[16:20], cfg.Timestamp)
	return buf, nil
}

// EncodeLogMessage assembles a complete log frame: standard header with
// ECU ID and timestamp, extended header, then payload verbatim. For
// verbose messages the payload must already carry cfg.ArgCount encoded
// arguments; non-verbose payloads are opaque. Scratch space is borrowed
// from h and stays valid until the heap is reset.
func EncodeLogMessage(h *heap.Heap, cfg LogConfig, payload []byte) ([]byte, error) {
	if !cfg.Level.Valid() {
		return nil, ErrInvalidConfig
	}
	std := StandardHeader{
		Version:      1,
		UseExtended:  true,
		HasECUID:     true,
		HasTimestamp: true,
		ECUID:        cfg.ECUID,
		Timestamp:    cfg.Timestamp,
	}
	ext := ExtendedHeader{
		Verbose:  cfg.Verbose,
		Type:     TypeLog,
		TypeInfo: uint8(cfg.Level),
		ArgCount: cfg.ArgCount,
		AppID:    cfg.AppID,
		CtxID:    cfg.CtxID,
	}

	total := std.Size() + ExtHeaderLen + len(payload)
	if total > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}
	handle, err := h.Alloc(total)
	if err != nil {
		return nil, err
	}
	frame, err := h.Bytes(handle, total)
	if err != nil {
		return nil, err
	}

	n, err := EncodeStandardHeader(frame, &std)
	if err != nil {
		return nil, err
	}
	m, err := EncodeExtendedHeader(frame[n:], &ext)
	if err != nil {
		return nil, err
	}
	copy(frame[n+m:], payload)
	if err := PatchLength(frame); err != nil {
		return nil, err
	}
	return frame, nil
}
