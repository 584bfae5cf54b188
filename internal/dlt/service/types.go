// Package service encodes and decodes control-channel request and
// response messages, built on the header codec in internal/dlt.
package service

// ServiceID identifies one control operation. The set is closed;
// unrecognized IDs still decode, with empty parameter slots.
type ServiceID uint32

const (
	SetLogLevel           ServiceID = 0x01
	SetTraceStatus        ServiceID = 0x02
	GetLogInfo            ServiceID = 0x03
	GetDefaultLogLevel    ServiceID = 0x04
	StoreConfiguration    ServiceID = 0x05
	ResetToFactoryDefault ServiceID = 0x06
	SetMessageFiltering   ServiceID = 0x0A
	SetDefaultLogLevel    ServiceID = 0x11
	SetDefaultTraceStatus ServiceID = 0x12
	GetSoftwareVersion    ServiceID = 0x13
	GetDefaultTraceStatus ServiceID = 0x15
	GetLogChannelNames    ServiceID = 0x17
	GetTraceStatus        ServiceID = 0x1F
)

// Known reports whether id belongs to the closed service set.
func (id ServiceID) Known() bool {
	switch id {
	case SetLogLevel, SetTraceStatus, GetLogInfo, GetDefaultLogLevel,
		StoreConfiguration, ResetToFactoryDefault, SetMessageFiltering,
		SetDefaultLogLevel, SetDefaultTraceStatus, GetSoftwareVersion,
		GetDefaultTraceStatus, GetLogChannelNames, GetTraceStatus:
		return true
	}
	return false
}

func (id ServiceID) String() string {
	switch id {
	case SetLogLevel:
		return "set_log_level"
	case SetTraceStatus:
		return "set_trace_status"
	case GetLogInfo:
		return "get_log_info"
	case GetDefaultLogLevel:
		return "get_default_log_level"
	case StoreConfiguration:
		return "store_configuration"
	case ResetToFactoryDefault:
		return "reset_to_factory_default"
	case SetMessageFiltering:
		return "set_message_filtering"
	case SetDefaultLogLevel:
		return "set_default_log_level"
	case SetDefaultTraceStatus:
		return "set_default_trace_status"
	case GetSoftwareVersion:
		return "get_software_version"
	case GetDefaultTraceStatus:
		return "get_default_trace_status"
	case GetLogChannelNames:
		return "get_log_channel_names"
	case GetTraceStatus:
		return "get_trace_status"
	default:
		return "unknown"
	}
}

// Status is the response outcome code.
type Status uint8

const (
	StatusOK           Status = 0
	StatusNotSupported Status = 1
	StatusError        Status = 2
	StatusPending      Status = 3

	// Informational codes used by log-info responses.
	StatusInfoNoMatch     Status = 6
	StatusInfoLogNoTrace  Status = 7
	StatusInfoTraceNoLog  Status = 8
	StatusInfoLogAndTrace Status = 9
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotSupported:
		return "not_supported"
	case StatusError:
		return "error"
	case StatusPending:
		return "pending"
	case StatusInfoNoMatch:
		return "info_no_match"
	case StatusInfoLogNoTrace:
		return "info_log_no_trace"
	case StatusInfoTraceNoLog:
		return "info_trace_no_log"
	case StatusInfoLogAndTrace:
		return "info_log_and_trace"
	default:
		return "unknown"
	}
}
