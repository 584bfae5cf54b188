package dlt

import "encoding/binary"

// Standard header byte 0 flag bits.
const (
	flagUseExtended   = 0x01
	flagMSBFirst      = 0x02
	flagWithECUID     = 0x04
	flagWithSession   = 0x08
	flagWithTimestamp = 0x10
)

const (
	// MinHeaderLen is the fixed standard header prefix.
	MinHeaderLen = 4
	// ExtHeaderLen is the fixed extended header size.
	ExtHeaderLen = 10
	// MaxFrameLen is the largest value the 16-bit length field can carry.
	MaxFrameLen = 65535

	lenOffset = 2
)

// StandardHeader is the decoded form of the mandatory frame prefix and
// its three optional trailing fields.
type StandardHeader struct {
	Version      uint8
	UseExtended  bool
	MSBFirst     bool
	HasECUID     bool
	HasSession   bool
	HasTimestamp bool

	Counter uint8
	Length  uint16

	ECUID     ID
	SessionID uint32
	Timestamp uint32
}

// Size returns the encoded byte length of the header, conditional
// fields included.
func (h *StandardHeader) Size() int {
	n := MinHeaderLen
	if h.HasECUID {
		n += 4
	}
	if h.HasSession {
		n += 4
	}
	if h.HasTimestamp {
		n += 4
	}
	return n
}

// EncodeStandardHeader writes h into buf and returns the byte count.
// Length is written as-is; callers building a full frame normally leave
// it zero and back-patch with PatchLength once the payload size is known.
func EncodeStandardHeader(buf []byte, h *StandardHeader) (int, error) {
	if len(buf) < h.Size() {
		return 0, ErrMalformedHeader
	}
	var htyp byte
	if h.UseExtended {
		htyp |= flagUseExtended
	}
	if h.MSBFirst {
		htyp |= flagMSBFirst
	}
	if h.HasECUID {
		htyp |= flagWithECUID
	}
	if h.HasSession {
		htyp |= flagWithSession
	}
	if h.HasTimestamp {
		htyp |= flagWithTimestamp
	}
	htyp |= (h.Version & 0x07) << 5

	buf[0] = htyp
	buf[1] = h.Counter
	binary.BigEndian.PutUint16(buf[lenOffset:lenOffset+2], h.Length)

	n := MinHeaderLen
	if h.HasECUID {
		copy(buf[n:n+4], h.ECUID[:])
		n += 4
	}
	if h.HasSession {
		binary.LittleEndian.PutUint32(buf[n:n+4], h.SessionID)
		n += 4
	}
	if h.HasTimestamp {
		binary.LittleEndian.PutUint32(buf[n:n+4], h.Timestamp)
		n += 4
	}
	return n, nil
}

// DecodeStandardHeader parses the standard header from buf. It fails
// with ErrMalformedHeader when fewer than four bytes are available, the
// declared length is below the fixed prefix, or the conditional fields
// do not fit in buf.
func DecodeStandardHeader(buf []byte) (StandardHeader, int, error) {
	if len(buf) < MinHeaderLen {
		return StandardHeader{}, 0, ErrMalformedHeader
	}
	htyp := buf[0]
	h := StandardHeader{
		Version:      (htyp >> 5) & 0x07,
		UseExtended:  htyp&flagUseExtended != 0,
		MSBFirst:     htyp&flagMSBFirst != 0,
		HasECUID:     htyp&flagWithECUID != 0,
		HasSession:   htyp&flagWithSession != 0,
		HasTimestamp: htyp&flagWithTimestamp != 0,
		Counter:      buf[1],
		Length:       binary.BigEndian.Uint16(buf[lenOffset : lenOffset+2]),
	}
	if int(h.Length) < MinHeaderLen {
		return StandardHeader{}, 0, ErrMalformedHeader
	}
	if h.Size() > len(buf) || h.Size() > int(h.Length) {
		return StandardHeader{}, 0, ErrMalformedHeader
	}
	if int(h.Length) > len(buf) {
		return StandardHeader{}, 0, ErrMalformedHeader
	}

	n := MinHeaderLen
	if h.HasECUID {
		copy(h.ECUID[:], buf[n:n+4])
		n += 4
	}
	if h.HasSession {
		h.SessionID = binary.LittleEndian.Uint32(buf[n : n+4])
		n += 4
	}
	if h.HasTimestamp {
		h.Timestamp = binary.LittleEndian.Uint32(buf[n : n+4])
		n += 4
	}
	return h, n, nil
}

// ExtendedHeader is the decoded fixed 10-byte section present when the
// standard header carries the use-extended flag.
type ExtendedHeader struct {
	Verbose  bool
	Type     MessageType
	TypeInfo uint8 // MTIN: log level, trace type, or control subtype
	ArgCount uint8 // NOAR
	AppID    ID
	CtxID    ID
}

// EncodeExtendedHeader writes h into buf and returns ExtHeaderLen.
func EncodeExtendedHeader(buf []byte, h *ExtendedHeader) (int, error) {
	if len(buf) < ExtHeaderLen {
		return 0, ErrMalformedHeader
	}
	var msin byte
	if h.Verbose {
		msin |= 0x01
	}
	msin |= (byte(h.Type) & 0x07) << 1
	msin |= (h.TypeInfo & 0x0f) << 4

	buf[0] = msin
	buf[1] = h.ArgCount
	copy(buf[2:6], h.AppID[:])
	copy(buf[6:10], h.CtxID[:])
	return ExtHeaderLen, nil
}

// DecodeExtendedHeader parses the extended header, failing with
// ErrMalformedHeader when fewer than ten bytes remain.
func DecodeExtendedHeader(buf []byte) (ExtendedHeader, int, error) {
	if len(buf) < ExtHeaderLen {
		return ExtendedHeader{}, 0, ErrMalformedHeader
	}
	msin := buf[0]
	h := ExtendedHeader{
		Verbose:  msin&0x01 != 0,
		Type:     MessageType((msin >> 1) & 0x07),
		TypeInfo: (msin >> 4) & 0x0f,
		ArgCount: buf[1],
	}
	copy(h.AppID[:], buf[2:6])
	copy(h.CtxID[:], buf[6:10])
	return h, ExtHeaderLen, nil
}

// PatchLength back-patches the total-length field of an assembled frame.
func PatchLength(frame []byte) error {
	if len(frame) < MinHeaderLen {
		return ErrMalformedHeader
	}
	if len(frame) > MaxFrameLen {
		return ErrFrameTooLarge
	}
	binary.BigEndian.PutUint16(frame[lenOffset:lenOffset+2], uint16(len(frame)))
	return nil
}

// PeekLength reads the declared total length without full header decode.
// Used by the reassembler's framing scan.
func PeekLength(buf []byte) (int, bool) {
	if len(buf) < MinHeaderLen {
		return 0, false
	}
	return int(binary.BigEndian.Uint16(buf[lenOffset : lenOffset+2])), true
}
