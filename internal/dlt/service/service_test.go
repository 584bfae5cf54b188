package service

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/dlt/heap"
)

func testMeta() Meta {
	return Meta{
		ECUID: dlt.MakeID("ECU1"),
		AppID: dlt.MakeID("DA1"),
		CtxID: dlt.MakeID("DC1"),
	}
}

func TestSetLogLevelRequestRoundTrip(t *testing.T) {
	hp := heap.New(0)
	frame, err := EncodeSetLogLevelRequest(hp, testMeta(),
		dlt.MakeID("LOG"), dlt.MakeID("TEST"), dlt.LevelInfo)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.ServiceID != SetLogLevel {
		t.Fatalf("expected service 0x01, got %#x", uint32(rec.ServiceID))
	}
	if rec.Response {
		t.Fatalf("expected request direction")
	}
	if rec.ECUID.String() != "ECU1" || rec.AppID.String() != "DA1" || rec.CtxID.String() != "DC1" {
		t.Fatalf("sender ids mismatch: %+v", rec)
	}
	if rec.TargetAppID().String() != "LOG" {
		t.Fatalf("target app mismatch: %q", rec.TargetAppID().String())
	}
	if rec.TargetCtxID().String() != "TEST" {
		t.Fatalf("target ctx mismatch: %q", rec.TargetCtxID().String())
	}
	if rec.Level() != dlt.LevelInfo {
		t.Fatalf("level mismatch: %d", rec.Param3)
	}
}

func TestGetSoftwareVersionResponseRoundTrip(t *testing.T) {
	hp := heap.New(0)
	frame, err := EncodeGetSoftwareVersionResponse(hp, testMeta(), StatusOK, "1.2.3")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.ServiceID != GetSoftwareVersion || !rec.Response || rec.Status != StatusOK {
		t.Fatalf("record mismatch: %+v", rec)
	}
	version, err := rec.VersionString(frame)
	if err != nil {
		t.Fatalf("version string: %v", err)
	}
	if version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", version)
	}
}

func TestGetDefaultLogLevelRoundTrip(t *testing.T) {
	hp := heap.New(0)
	req, err := EncodeGetDefaultLogLevelRequest(hp, testMeta())
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	rec, err := Parse(req)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	if rec.ServiceID != GetDefaultLogLevel || rec.Response {
		t.Fatalf("request record mismatch: %+v", rec)
	}

	resp, err := EncodeGetDefaultLogLevelResponse(hp, testMeta(), StatusOK, dlt.LevelWarn)
	if err != nil {
		t.Fatalf("encode response: %v", err)
	}
	rec, err = Parse(resp)
	if err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !rec.Response || rec.Status != StatusOK || rec.Level() != dlt.LevelWarn {
		t.Fatalf("response record mismatch: %+v", rec)
	}
}

func TestGenericResponsesRoundTrip(t *testing.T) {
	hp := heap.New(0)
	ids := []ServiceID{
		SetLogLevel, SetTraceStatus, StoreConfiguration, ResetToFactoryDefault,
		SetMessageFiltering, SetDefaultLogLevel, SetDefaultTraceStatus,
		GetDefaultTraceStatus, GetLogChannelNames, GetTraceStatus,
	}
	for _, id := range ids {
		frame, err := EncodeResponse(hp, testMeta(), id, StatusNotSupported)
		if err != nil {
			t.Fatalf("encode %v: %v", id, err)
		}
		rec, err := Parse(frame)
		if err != nil {
			t.Fatalf("parse %v: %v", id, err)
		}
		if rec.ServiceID != id || !rec.Response || rec.Status != StatusNotSupported {
			t.Fatalf("record mismatch for %v: %+v", id, rec)
		}
		hp.Reset()
	}
}

func TestGetLogInfoRequestWildcard(t *testing.T) {
	hp := heap.New(0)
	frame, err := EncodeGetLogInfoRequest(hp, testMeta(), 7, dlt.ID{}, dlt.ID{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// GetLogInfo parameter slots are undocumented and must stay unset.
	if rec.ServiceID != GetLogInfo || rec.Param1 != 0 || rec.Param2 != 0 || rec.Param3 != 0 {
		t.Fatalf("record mismatch: %+v", rec)
	}
}

func TestUnknownServiceIDIsNotAnError(t *testing.T) {
	hp := heap.New(0)
	frame, err := EncodeRequest(hp, testMeta(), ServiceID(0xFF))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.ServiceID.Known() {
		t.Fatalf("expected unknown service id")
	}
	if rec.Param1 != 0 || rec.Param2 != 0 || rec.Param3 != 0 {
		t.Fatalf("expected empty parameter slots: %+v", rec)
	}
}

func TestParseRejectsNonControlFrames(t *testing.T) {
	hp := heap.New(0)
	frame, err := dlt.EncodeLogMessage(hp, dlt.LogConfig{
		ECUID: dlt.MakeID("ECU1"),
		AppID: dlt.MakeID("DA1"),
		CtxID: dlt.MakeID("DC1"),
		Level: dlt.LevelInfo,
	}, []byte("not a control message"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Parse(frame); !errors.Is(err, ErrNotControl) {
		t.Fatalf("expected ErrNotControl, got %v", err)
	}
}

func TestParseTruncatedSetLogLevelBody(t *testing.T) {
	hp := heap.New(0)
	frame, err := EncodeSetLogLevelRequest(hp, testMeta(),
		dlt.MakeID("LOG"), dlt.MakeID("TEST"), dlt.LevelInfo)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	short := make([]byte, len(frame)-4)
	copy(short, frame)
	if err := dlt.PatchLength(short); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if _, err := Parse(short); !errors.Is(err, dlt.ErrTruncatedPayload) {
		t.Fatalf("expected ErrTruncatedPayload, got %v", err)
	}
}

func TestRecordBinaryLayout(t *testing.T) {
	in := Record{
		ServiceID:  GetSoftwareVersion,
		Response:   true,
		Status:     StatusPending,
		MSTP:       dlt.TypeControl,
		MTIN:       dlt.ControlResponse,
		ECUID:      dlt.MakeID("ECU1"),
		AppID:      dlt.MakeID("DA1"),
		CtxID:      dlt.MakeID("DC1"),
		PayloadLen: 14,
		PayloadOff: 18,
		Param1:     5,
		Param2:     27,
		Param3:     4,
	}
	buf, err := in.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(buf) != RecordLen {
		t.Fatalf("expected %d-byte record, got %d", RecordLen, len(buf))
	}
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != uint32(GetSoftwareVersion) {
		t.Fatalf("service id slot mismatch: %#x", got)
	}
	if buf[4] != 1 || buf[5] != byte(StatusPending) {
		t.Fatalf("direction/status slots mismatch: % x", buf[4:6])
	}
	if got := binary.LittleEndian.Uint16(buf[20:22]); got != 14 {
		t.Fatalf("payload length slot mismatch: %d", got)
	}
	if buf[32] != 4 {
		t.Fatalf("param3 slot mismatch: %d", buf[32])
	}

	var out Record
	if err := out.UnmarshalBinary(buf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("record mismatch: got=%+v want=%+v", out, in)
	}
}

func TestEncodeFailsWhenHeapExhausted(t *testing.T) {
	hp := heap.New(8)
	_, err := EncodeGetSoftwareVersionRequest(hp, testMeta())
	if !errors.Is(err, heap.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
}
