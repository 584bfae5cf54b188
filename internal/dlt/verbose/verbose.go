// Package verbose encodes and decodes self-describing typed arguments.
//
// Each argument is a 32-bit little-endian type-info word followed by the
// value bytes. Strings and raw blobs carry a 16-bit little-endian length
// prefix. Non-verbose payloads never reach this package.
package verbose

import (
	"encoding/binary"
	"errors"
	"math"
)

// Type-info bit assignments.
const (
	// TYLE width selector, bits 0-3.
	TypeLen8  uint32 = 0x01
	TypeLen16 uint32 = 0x02
	TypeLen32 uint32 = 0x03
	TypeLen64 uint32 = 0x04

	TypeBool   uint32 = 0x10
	TypeSigned uint32 = 0x20
	TypeUnsign uint32 = 0x40
	TypeFloat  uint32 = 0x80
	TypeString uint32 = 0x200
	TypeRaw    uint32 = 0x400

	typeLenMask = 0x0f
	infoLen     = 4
	prefixLen   = 2
)

var (
	ErrTruncated    = errors.New("verbose: truncated payload")
	ErrBadTypeInfo  = errors.New("verbose: unsupported type info")
	ErrTypeMismatch = errors.New("verbose: argument type mismatch")
	ErrTooLong      = errors.New("verbose: value exceeds length prefix range")
)

// Argument is one decoded verbose payload element. Data holds the value
// bytes without the type-info word or length prefix.
type Argument struct {
	TypeInfo uint32
	Data     []byte
}

func Bool(v bool) Argument {
	b := byte(0)
	if v {
		b = 1
	}
	return Argument{TypeInfo: TypeBool | TypeLen8, Data: []byte{b}}
}

func Int8(v int8) Argument   { return Argument{TypeInfo: TypeSigned | TypeLen8, Data: []byte{byte(v)}} }
func Uint8(v uint8) Argument { return Argument{TypeInfo: TypeUnsign | TypeLen8, Data: []byte{v}} }

func Int16(v int16) Argument   { return fixed(TypeSigned|TypeLen16, uint64(uint16(v)), 2) }
func Uint16(v uint16) Argument { return fixed(TypeUnsign|TypeLen16, uint64(v), 2) }
func Int32(v int32) Argument   { return fixed(TypeSigned|TypeLen32, uint64(uint32(v)), 4) }
func Uint32(v uint32) Argument { return fixed(TypeUnsign|TypeLen32, uint64(v), 4) }
func Int64(v int64) Argument   { return fixed(TypeSigned|TypeLen64, uint64(v), 8) }
func Uint64(v uint64) Argument { return fixed(TypeUnsign|TypeLen64, v, 8) }

func Float32(v float32) Argument {
	return fixed(TypeFloat|TypeLen32, uint64(math.Float32bits(v)), 4)
}

func Float64(v float64) Argument {
	return fixed(TypeFloat|TypeLen64, math.Float64bits(v), 8)
}

func String(s string) Argument {
	return Argument{TypeInfo: TypeString, Data: []byte(s)}
}

func Raw(b []byte) Argument {
	data := make([]byte, len(b))
	copy(data, b)
	return Argument{TypeInfo: TypeRaw, Data: data}
}

func fixed(info uint32, v uint64, width int) Argument {
	data := make([]byte, width)
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(data, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(data, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(data, v)
	}
	return Argument{TypeInfo: info, Data: data}
}

// IsString reports whether the argument carries string data.
func (a Argument) IsString() bool { return a.TypeInfo&TypeString != 0 }

// IsRaw reports whether the argument carries an opaque blob.
func (a Argument) IsRaw() bool { return a.TypeInfo&TypeRaw != 0 }

// AsString returns the argument value as a string.
func (a Argument) AsString() (string, error) {
	if !a.IsString() {
		return "", ErrTypeMismatch
	}
	return string(a.Data), nil
}

// AsBool returns the argument value as a bool.
func (a Argument) AsBool() (bool, error) {
	if a.TypeInfo&TypeBool == 0 || len(a.Data) != 1 {
		return false, ErrTypeMismatch
	}
	return a.Data[0] != 0, nil
}

// AsUint returns a zero-extended unsigned value of any width.
func (a Argument) AsUint() (uint64, error) {
	if a.TypeInfo&TypeUnsign == 0 {
		return 0, ErrTypeMismatch
	}
	return a.bits()
}

// AsInt returns a sign-extended signed value of any width.
func (a Argument) AsInt() (int64, error) {
	if a.TypeInfo&TypeSigned == 0 {
		return 0, ErrTypeMismatch
	}
	v, err := a.bits()
	if err != nil {
		return 0, err
	}
	switch len(a.Data) {
	case 1:
		return int64(int8(v)), nil
	case 2:
		return int64(int16(v)), nil
	case 4:
		return int64(int32(v)), nil
	default:
		return int64(v), nil
	}
}

// AsFloat returns the argument value as a float64.
func (a Argument) AsFloat() (float64, error) {
	if a.TypeInfo&TypeFloat == 0 {
		return 0, ErrTypeMismatch
	}
	switch len(a.Data) {
	case 4:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(a.Data))), nil
	case 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(a.Data)), nil
	default:
		return 0, ErrBadTypeInfo
	}
}

func (a Argument) bits() (uint64, error) {
	switch len(a.Data) {
	case 1:
		return uint64(a.Data[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(a.Data)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(a.Data)), nil
	case 8:
		return binary.LittleEndian.Uint64(a.Data), nil
	default:
		return 0, ErrBadTypeInfo
	}
}

// EncodedLen returns the wire size of one argument.
func (a Argument) EncodedLen() int {
	if a.IsString() || a.IsRaw() {
		return infoLen + prefixLen + len(a.Data)
	}
	return infoLen + len(a.Data)
}

// AppendArguments appends the wire encoding of args to dst.
func AppendArguments(dst []byte, args []Argument) ([]byte, error) {
	for _, a := range args {
		if a.IsString() || a.IsRaw() {
			if len(a.Data) > math.MaxUint16 {
				return nil, ErrTooLong
			}
			dst = binary.LittleEndian.AppendUint32(dst, a.TypeInfo)
			dst = binary.LittleEndian.AppendUint16(dst, uint16(len(a.Data)))
			dst = append(dst, a.Data...)
			continue
		}
		dst = binary.LittleEndian.AppendUint32(dst, a.TypeInfo)
		dst = append(dst, a.Data...)
	}
	return dst, nil
}

// DecodeArguments walks exactly count arguments from buf, failing with
// ErrTruncated when the buffer ends first. It returns the arguments and
// the number of bytes consumed.
func DecodeArguments(buf []byte, count int) ([]Argument, int, error) {
	args := make([]Argument, 0, count)
	offset := 0
	for i := 0; i < count; i++ {
		if len(buf)-offset < infoLen {
			return nil, 0, ErrTruncated
		}
		info := binary.LittleEndian.Uint32(buf[offset:])
		offset += infoLen

		var width int
		switch {
		case info&TypeString != 0 || info&TypeRaw != 0:
			if len(buf)-offset < prefixLen {
				return nil, 0, ErrTruncated
			}
			width = int(binary.LittleEndian.Uint16(buf[offset:]))
			offset += prefixLen
		case info&TypeBool != 0:
			width = 1
		case info&(TypeSigned|TypeUnsign|TypeFloat) != 0:
			switch info & typeLenMask {
			case TypeLen8:
				width = 1
			case TypeLen16:
				width = 2
			case TypeLen32:
				width = 4
			case TypeLen64:
				width = 8
			default:
				return nil, 0, ErrBadTypeInfo
			}
		default:
			return nil, 0, ErrBadTypeInfo
		}

		if len(buf)-offset < width {
			return nil, 0, ErrTruncated
		}
		data := make([]byte, width)
		copy(data, buf[offset:offset+width])
		offset += width
		args = append(args, Argument{TypeInfo: info, Data: data})
	}
	return args, offset, nil
}
