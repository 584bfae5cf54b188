package service

import (
	"encoding/binary"
	"math"

	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/dlt/heap"
)

const serviceIDLen = 4

// Meta carries the sender identity written into the headers of every
// encoded control message.
type Meta struct {
	ECUID   dlt.ID
	AppID   dlt.ID
	CtxID   dlt.ID
	Counter uint8
}

// EncodeSetLogLevelRequest builds a SetLogLevel request: target
// application (4 bytes), target context (4 bytes), level (1 byte).
func EncodeSetLogLevelRequest(hp *heap.Heap, m Meta, targetApp, targetCtx dlt.ID, level dlt.LogLevel) ([]byte, error) {
	if !level.Valid() {
		return nil, dlt.ErrInvalidConfig
	}
	body := make([]byte, 0, 9)
	body = append(body, targetApp[:]...)
	body = append(body, targetCtx[:]...)
	body = append(body, byte(level))
	return encodeControl(hp, m, dlt.ControlRequest, SetLogLevel, nil, body)
}

// EncodeGetLogInfoRequest builds a GetLogInfo request: an options word
// followed by target application and context. Zeroed targets act as
// wildcards.
func EncodeGetLogInfoRequest(hp *heap.Heap, m Meta, options uint32, targetApp, targetCtx dlt.ID) ([]byte, error) {
	body := make([]byte, 0, 12)
	body = binary.LittleEndian.AppendUint32(body, options)
	body = append(body, targetApp[:]...)
	body = append(body, targetCtx[:]...)
	return encodeControl(hp, m, dlt.ControlRequest, GetLogInfo, nil, body)
}

// EncodeGetDefaultLogLevelRequest builds a GetDefaultLogLevel request.
// The request carries no body beyond the service ID.
func EncodeGetDefaultLogLevelRequest(hp *heap.Heap, m Meta) ([]byte, error) {
	return encodeControl(hp, m, dlt.ControlRequest, GetDefaultLogLevel, nil, nil)
}

// EncodeGetSoftwareVersionRequest builds a GetSoftwareVersion request.
func EncodeGetSoftwareVersionRequest(hp *heap.Heap, m Meta) ([]byte, error) {
	return encodeControl(hp, m, dlt.ControlRequest, GetSoftwareVersion, nil, nil)
}

// EncodeRequest builds a bodyless request for any service ID, covering
// the IDs whose request layout is just the identifier.
func EncodeRequest(hp *heap.Heap, m Meta, id ServiceID) ([]byte, error) {
	return encodeControl(hp, m, dlt.ControlRequest, id, nil, nil)
}

// EncodeResponse builds the generic status-only response used by most
// service IDs.
func EncodeResponse(hp *heap.Heap, m Meta, id ServiceID, status Status) ([]byte, error) {
	return encodeControl(hp, m, dlt.ControlResponse, id, &status, nil)
}

// EncodeGetDefaultLogLevelResponse builds a GetDefaultLogLevel response
// carrying the configured level after the status byte.
func EncodeGetDefaultLogLevelResponse(hp *heap.Heap, m Meta, status Status, level dlt.LogLevel) ([]byte, error) {
	if !level.Valid() {
		return nil, dlt.ErrInvalidConfig
	}
	return encodeControl(hp, m, dlt.ControlResponse, GetDefaultLogLevel, &status, []byte{byte(level)})
}

// EncodeGetSoftwareVersionResponse builds a GetSoftwareVersion response
// carrying a length-prefixed version string after the status byte.
func EncodeGetSoftwareVersionResponse(hp *heap.Heap, m Meta, status Status, version string) ([]byte, error) {
	if len(version) > math.MaxUint32 {
		return nil, dlt.ErrFrameTooLarge
	}
	body := make([]byte, 0, 4+len(version))
	body = binary.LittleEndian.AppendUint32(body, uint32(len(version)))
	body = append(body, version...)
	return encodeControl(hp, m, dlt.ControlResponse, GetSoftwareVersion, &status, body)
}

// encodeControl assembles the full control frame: standard header,
// extended header, little-endian service ID, optional status byte, then
// the service-specific body. Frame storage is borrowed from hp.
func encodeControl(hp *heap.Heap, m Meta, subtype uint8, id ServiceID, status *Status, body []byte) ([]byte, error) {
	std := dlt.StandardHeader{
		Version:     1,
		UseExtended: true,
		HasECUID:    true,
		Counter:     m.Counter,
		ECUID:       m.ECUID,
	}
	ext := dlt.ExtendedHeader{
		Type:     dlt.TypeControl,
		TypeInfo: subtype,
		AppID:    m.AppID,
		CtxID:    m.CtxID,
	}

	payloadLen := serviceIDLen + len(body)
	if status != nil {
		payloadLen++
	}
	total := std.Size() + dlt.ExtHeaderLen + payloadLen
	if total > dlt.MaxFrameLen {
		return nil, dlt.ErrFrameTooLarge
	}

	handle, err := hp.Alloc(total)
	if err != nil {
		return nil, err
	}
	frame, err := hp.Bytes(handle, total)
	if err != nil {
		return nil, err
	}

	n, err := dlt.EncodeStandardHeader(frame, &std)
	if err != nil {
		return nil, err
	}
	en, err := dlt.EncodeExtendedHeader(frame[n:], &ext)
	if err != nil {
		return nil, err
	}
	off := n + en
	binary.LittleEndian.PutUint32(frame[off:off+4], uint32(id))
	off += serviceIDLen
	if status != nil {
		frame[off] = byte(*status)
		off++
	}
	copy(frame[off:], body)

	if err := dlt.PatchLength(frame); err != nil {
		return nil, err
	}
	return frame, nil
}
