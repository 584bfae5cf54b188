// dltgen builds single wire frames for testing and simulation: log
// messages through the verbose codec, and the full set of control
// requests and responses. Frames go to stdout, a file, or a TCP peer.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/embworks/dltwire/internal/config"
	"github.com/embworks/dltwire/internal/dlt"
	"github.com/embworks/dltwire/internal/dlt/heap"
	"github.com/embworks/dltwire/internal/dlt/service"
	"github.com/embworks/dltwire/internal/dlt/verbose"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to sender TOML config")
		kind       = flag.String("type", "log", "frame type: log, set-log-level, get-log-info, get-default-log-level, get-software-version, response, default-log-level-response, software-version-response")
		text       = flag.String("text", "hello from dltgen", "log message text (type=log)")
		level      = flag.Uint("level", uint(dlt.LevelInfo), "log level 1-6")
		targetApp  = flag.String("target-app", "", "target application id")
		targetCtx  = flag.String("target-ctx", "", "target context id")
		serviceID  = flag.String("service", "0x01", "service id for type=response")
		status     = flag.Uint("status", uint(service.StatusOK), "response status code")
		version    = flag.String("swversion", "1.0.0", "software version string")
		out        = flag.String("out", "-", "output: -, file path, or tcp:host:port")
		repeat     = flag.Int("repeat", 1, "number of frames to emit")
		showVer    = flag.Bool("version", false, "print the engine version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println("dltgen engine", dlt.Version())
		return
	}

	cfg, err := config.LoadSenderConfig(*configPath)
	if err != nil {
		fail(err)
	}
	meta := service.Meta{
		ECUID: dlt.MakeID(cfg.ECUID),
		AppID: dlt.MakeID(cfg.AppID),
		CtxID: dlt.MakeID(cfg.CtxID),
	}

	w, closeFn, err := openOutput(*out)
	if err != nil {
		fail(err)
	}
	defer closeFn()

	hp := heap.New(heap.DefaultCapacity)
	for i := 0; i < *repeat; i++ {
		meta.Counter = uint8(i)
		frame, err := buildFrame(hp, meta, *kind, *text, dlt.LogLevel(*level),
			*targetApp, *targetCtx, *serviceID, service.Status(*status), *version)
		if err != nil {
			fail(err)
		}
		if _, err := w.Write(frame); err != nil {
			fail(err)
		}
		hp.Reset()
	}
}

func buildFrame(hp *heap.Heap, meta service.Meta, kind, text string, level dlt.LogLevel,
	targetApp, targetCtx, serviceID string, status service.Status, version string) ([]byte, error) {
	switch kind {
	case "log":
		payload, err := verbose.AppendArguments(nil, []verbose.Argument{verbose.String(text)})
		if err != nil {
			return nil, err
		}
		return dlt.EncodeLogMessage(hp, dlt.LogConfig{
			ECUID:     meta.ECUID,
			AppID:     meta.AppID,
			CtxID:     meta.CtxID,
			Level:     level,
			Verbose:   true,
			ArgCount:  1,
			Timestamp: uint32(time.Now().Unix()),
		}, payload)
	case "set-log-level":
		return service.EncodeSetLogLevelRequest(hp, meta,
			dlt.MakeID(targetApp), dlt.MakeID(targetCtx), level)
	case "get-log-info":
		return service.EncodeGetLogInfoRequest(hp, meta, 7,
			dlt.MakeID(targetApp), dlt.MakeID(targetCtx))
	case "get-default-log-level":
		return service.EncodeGetDefaultLogLevelRequest(hp, meta)
	case "get-software-version":
		return service.EncodeGetSoftwareVersionRequest(hp, meta)
	case "response":
		id, err := parseServiceID(serviceID)
		if err != nil {
			return nil, err
		}
		return service.EncodeResponse(hp, meta, id, status)
	case "default-log-level-response":
		return service.EncodeGetDefaultLogLevelResponse(hp, meta, status, level)
	case "software-version-response":
		return service.EncodeGetSoftwareVersionResponse(hp, meta, status, version)
	default:
		return nil, fmt.Errorf("dltgen: unknown frame type %q", kind)
	}
}

func parseServiceID(raw string) (service.ServiceID, error) {
	v, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("dltgen: bad service id %q: %w", raw, err)
	}
	return service.ServiceID(v), nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "dltgen: %v\n", err)
	os.Exit(1)
}

func openOutput(out string) (io.Writer, func(), error) {
	switch {
	case out == "-" || out == "":
		return os.Stdout, func() {}, nil
	case len(out) > 4 && out[:4] == "tcp:":
		conn, err := net.Dial("tcp", out[4:])
		if err != nil {
			return nil, nil, err
		}
		return conn, func() { conn.Close() }, nil
	default:
		f, err := os.Create(out)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	}
}
