package service

import (
	"encoding/binary"
	"errors"

	"github.com/embworks/dltwire/internal/dlt"
)

// RecordLen is the size of the packed summary record.
const RecordLen = 48

var ErrShortRecord = errors.New("service: short summary record")

// Record is the parsed-service-message summary. The parameter slots are
// service-specific: target app/context IDs and level for SetLogLevel,
// the level for GetDefaultLogLevel responses, version-string length and
// offset for GetSoftwareVersion responses. For all other IDs they stay
// zero; their layouts are undocumented and are not guessed here.
type Record struct {
	ServiceID ServiceID
	Response  bool
	Status    Status
	MSTP      dlt.MessageType
	MTIN      uint8

	ECUID dlt.ID
	AppID dlt.ID
	CtxID dlt.ID

	PayloadLen uint16
	PayloadOff uint16

	Param1 uint32
	Param2 uint32
	Param3 uint8
}

// TargetAppID interprets Param1 as a 4-character identifier.
func (r *Record) TargetAppID() dlt.ID {
	var id dlt.ID
	binary.LittleEndian.PutUint32(id[:], r.Param1)
	return id
}

// TargetCtxID interprets Param2 as a 4-character identifier.
func (r *Record) TargetCtxID() dlt.ID {
	var id dlt.ID
	binary.LittleEndian.PutUint32(id[:], r.Param2)
	return id
}

// Level interprets Param3 as a log level.
func (r *Record) Level() dlt.LogLevel {
	return dlt.LogLevel(r.Param3)
}

// VersionString extracts the version text of a GetSoftwareVersion
// response from the frame the record was parsed from. Param1 holds the
// string length, Param2 its offset within the frame.
func (r *Record) VersionString(frame []byte) (string, error) {
	end := int(r.Param2) + int(r.Param1)
	if r.Param2 == 0 || end > len(frame) {
		return "", dlt.ErrTruncatedPayload
	}
	return string(frame[r.Param2:end]), nil
}

// MarshalBinary encodes the record into its packed 48-byte layout.
func (r *Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.ServiceID))
	if r.Response {
		buf[4] = 1
	}
	buf[5] = byte(r.Status)
	buf[6] = byte(r.MSTP)
	buf[7] = r.MTIN
	copy(buf[8:12], r.ECUID[:])
	copy(buf[12:16], r.AppID[:])
	copy(buf[16:20], r.CtxID[:])
	binary.LittleEndian.PutUint16(buf[20:22], r.PayloadLen)
	binary.LittleEndian.PutUint16(buf[22:24], r.PayloadOff)
	binary.LittleEndian.PutUint32(buf[24:28], r.Param1)
	binary.LittleEndian.PutUint32(buf[28:32], r.Param2)
	buf[32] = r.Param3
	// Bytes 33-47 reserved.
	return buf, nil
}

// UnmarshalBinary decodes a packed 48-byte summary record.
func (r *Record) UnmarshalBinary(buf []byte) error {
	if len(buf) < RecordLen {
		return ErrShortRecord
	}
	r.ServiceID = ServiceID(binary.LittleEndian.Uint32(buf[0:4]))
	r.Response = buf[4] != 0
	r.Status = Status(buf[5])
	r.MSTP = dlt.MessageType(buf[6])
	r.MTIN = buf[7]
	copy(r.ECUID[:], buf[8:12])
	copy(r.AppID[:], buf[12:16])
	copy(r.CtxID[:], buf[16:20])
	r.PayloadLen = binary.LittleEndian.Uint16(buf[20:22])
	r.PayloadOff = binary.LittleEndian.Uint16(buf[22:24])
	r.Param1 = binary.LittleEndian.Uint32(buf[24:28])
	r.Param2 = binary.LittleEndian.Uint32(buf[28:32])
	r.Param3 = buf[32]
	return nil
}
