package service

import (
	"encoding/binary"
	"errors"

	"github.com/embworks/dltwire/internal/dlt"
)

var ErrNotControl = errors.New("service: frame is not a control message")

// Parse decodes one complete control frame into a summary record. The
// frame must carry an extended header with message type Control. An
// unrecognized service ID is not an error; the record is returned with
// empty parameter slots so the pipeline never stalls on unknown IDs.
func Parse(frame []byte) (Record, error) {
	std, n, err := dlt.DecodeStandardHeader(frame)
	if err != nil {
		return Record{}, err
	}
	if !std.UseExtended {
		return Record{}, ErrNotControl
	}
	ext, en, err := dlt.DecodeExtendedHeader(frame[n:])
	if err != nil {
		return Record{}, err
	}
	if ext.Type != dlt.TypeControl {
		return Record{}, ErrNotControl
	}

	payloadOff := n + en
	if int(std.Length) < payloadOff+serviceIDLen || payloadOff+serviceIDLen > len(frame) {
		return Record{}, dlt.ErrTruncatedPayload
	}
	payload := frame[payloadOff:std.Length]

	rec := Record{
		ServiceID:  ServiceID(binary.LittleEndian.Uint32(payload[:serviceIDLen])),
		Response:   ext.TypeInfo == dlt.ControlResponse,
		MSTP:       ext.Type,
		MTIN:       ext.TypeInfo,
		ECUID:      std.ECUID,
		AppID:      ext.AppID,
		CtxID:      ext.CtxID,
		PayloadLen: uint16(len(payload)),
		PayloadOff: uint16(payloadOff),
	}

	body := payload[serviceIDLen:]
	if rec.Response && len(body) > 0 {
		rec.Status = Status(body[0])
		body = body[1:]
	}

	// Parameter slots are only documented for three services; the rest
	// stay zero until their layouts are specified.
	switch rec.ServiceID {
	case SetLogLevel:
		if !rec.Response {
			if len(body) < 9 {
				return Record{}, dlt.ErrTruncatedPayload
			}
			rec.Param1 = binary.LittleEndian.Uint32(body[0:4])
			rec.Param2 = binary.LittleEndian.Uint32(body[4:8])
			rec.Param3 = body[8]
		}
	case GetDefaultLogLevel:
		if rec.Response {
			if len(body) < 1 {
				return Record{}, dlt.ErrTruncatedPayload
			}
			rec.Param3 = body[0]
		}
	case GetSoftwareVersion:
		if rec.Response {
			if len(body) < 4 {
				return Record{}, dlt.ErrTruncatedPayload
			}
			strLen := binary.LittleEndian.Uint32(body[0:4])
			if int(strLen) > len(body)-4 {
				return Record{}, dlt.ErrTruncatedPayload
			}
			rec.Param1 = strLen
			// Offset of the string within the whole frame.
			rec.Param2 = uint32(payloadOff + serviceIDLen + 1 + 4)
		}
	}
	return rec, nil
}
