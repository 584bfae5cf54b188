package server

import (
	"encoding/hex"
	"strings"

	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/dlt/service"
	"github.com/embworks/dltwire/internal/dlt/stream"
)

// FrameEvent is the JSON shape pushed to websocket subscribers, one per
// decoded frame.
type FrameEvent struct {
	Type      string `json:"type"`
	Counter   uint8  `json:"counter"`
	Timestamp uint32 `json:"timestamp,omitempty"`
	ECUID     string `json:"ecu,omitempty"`
	AppID     string `json:"app,omitempty"`
	CtxID     string `json:"ctx,omitempty"`
	Level     string `json:"level,omitempty"`
	Text      string `json:"text,omitempty"`
	Payload   string `json:"payload,omitempty"`

	Service *ServiceEvent `json:"service,omitempty"`
}

// ServiceEvent summarizes a control message for the dashboard.
type ServiceEvent struct {
	ID        string `json:"id"`
	Raw       uint32 `json:"raw_id"`
	Response  bool   `json:"response"`
	Status    string `json:"status,omitempty"`
	TargetApp string `json:"target_app,omitempty"`
	TargetCtx string `json:"target_ctx,omitempty"`
	Level     string `json:"level,omitempty"`
	Version   string `json:"version,omitempty"`
}

// NewFrameEvent flattens a decoded frame into its dashboard shape.
func NewFrameEvent(f stream.Frame) FrameEvent {
	ev := FrameEvent{
		Type:      "log",
		Counter:   f.Header.Counter,
		Timestamp: f.Header.Timestamp,
		ECUID:     f.Header.ECUID.String(),
	}
	if f.Extended == nil {
		ev.Payload = hex.EncodeToString(f.Payload)
		return ev
	}
	ev.AppID = f.Extended.AppID.String()
	ev.CtxID = f.Extended.CtxID.String()

	switch {
	case f.Record != nil:
		rec := f.Record
		ev.Type = "control"
		sv := &ServiceEvent{
			ID:       rec.ServiceID.String(),
			Raw:      uint32(rec.ServiceID),
			Response: rec.Response,
		}
		if rec.Response {
			sv.Status = rec.Status.String()
		}
		switch {
		case rec.ServiceID == service.SetLogLevel && !rec.Response:
			sv.TargetApp = rec.TargetAppID().String()
			sv.TargetCtx = rec.TargetCtxID().String()
			sv.Level = rec.Level().String()
		case rec.ServiceID == service.GetDefaultLogLevel && rec.Response:
			sv.Level = rec.Level().String()
		case rec.ServiceID == service.GetSoftwareVersion && rec.Response:
			if v, err := rec.VersionString(f.Raw); err == nil {
				sv.Version = v
			}
		}
		ev.Service = sv
	case f.Arguments != nil:
		ev.Level = dlt.LogLevel(f.Extended.TypeInfo).String()
		parts := make([]string, 0, len(f.Arguments))
		for _, a := range f.Arguments {
			if s, err := a.AsString(); err == nil {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, hex.EncodeToString(a.Data))
		}
		ev.Text = strings.Join(parts, " ")
	default:
		ev.Level = dlt.LogLevel(f.Extended.TypeInfo).String()
		ev.Payload = hex.EncodeToString(f.Payload)
	}
	return ev
}
