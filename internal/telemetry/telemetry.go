// Package telemetry provides the simulator's append-only log sinks: round
// trip times, free-form event lines, joined-session dumps, and uplink
// response times.
package telemetry

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Config names the telemetry sink paths and whether logging is active.
type Config struct {
	Active        bool
	PrintlnMirror bool
	RTTLogPath    string
	PrintLogPath  string
	SessionsPath  string
	ResponsePath  string
}

// DefaultConfig returns the default telemetry sink paths.
func DefaultConfig() Config {
	return Config{
		Active:        true,
		PrintlnMirror: true,
		RTTLogPath:    "rtt_times.csv",
		PrintLogPath:  "log.txt",
		SessionsPath:  "node_sessions.txt",
		ResponsePath:  "response_times.csv",
	}
}

// Telemetry owns one mutex-guarded append writer per sink. All sinks are
// opened eagerly at construction so that no writer is lazily created under
// contention later, per the design note against static singletons: inject
// one Telemetry instance rather than reaching for globals.
type Telemetry struct {
	cfg Config

	rttMu  sync.Mutex
	rtt    *os.File
	logMu  sync.Mutex
	log    *log.Logger
	logF   *os.File
	sessMu sync.Mutex
	sess   *os.File
	respMu sync.Mutex
	resp   *os.File
}

// Open creates (or appends to) every configured sink. If cfg.Active is
// false, Open returns a Telemetry whose methods are no-ops.
func Open(cfg Config) (*Telemetry, error) {
	t := &Telemetry{cfg: cfg}
	if !cfg.Active {
		return t, nil
	}

	var err error
	if t.rtt, err = openAppend(cfg.RTTLogPath); err != nil {
		return nil, err
	}
	if t.logF, err = openAppend(cfg.PrintLogPath); err != nil {
		return nil, err
	}
	t.log = log.New(t.logF, "", log.LstdFlags)
	if t.sess, err = openAppend(cfg.SessionsPath); err != nil {
		return nil, err
	}
	if t.resp, err = openAppend(cfg.ResponsePath); err != nil {
		return nil, err
	}
	return t, nil
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Close closes every open sink.
func (t *Telemetry) Close() {
	for _, f := range []*os.File{t.rtt, t.logF, t.sess, t.resp} {
		if f != nil {
			f.Close()
		}
	}
}

// RecordRTT appends one `<unix_ms>,<dev_eui_hex>,<elapsed_ms>` line.
func (t *Telemetry) RecordRTT(devEUI string, elapsedMs int64) {
	if !t.cfg.Active {
		return
	}
	t.rttMu.Lock()
	fmt.Fprintf(t.rtt, "%d,%s,%d\n", time.Now().UnixMilli(), devEUI, elapsedMs)
	t.rttMu.Unlock()
}

// RecordResponseTime appends one `<unix_ms>,<elapsed_ms>` line.
func (t *Telemetry) RecordResponseTime(elapsedMs int64) {
	if !t.cfg.Active {
		return
	}
	t.respMu.Lock()
	fmt.Fprintf(t.resp, "%d,%d\n", time.Now().UnixMilli(), elapsedMs)
	t.respMu.Unlock()
}

// RecordSession appends one JSON device object line on successful join.
func (t *Telemetry) RecordSession(sessionJSON []byte) {
	if !t.cfg.Active {
		return
	}
	t.sessMu.Lock()
	t.sess.Write(sessionJSON)
	t.sess.Write([]byte("\n"))
	t.sessMu.Unlock()
}

// RecordConfirmedUplink is a no-op here: telemetry's sinks are append-only
// logs, not a queryable ledger, so confirmed-uplink ack tracking is left to
// internal/storage's Recorder decorator.
func (t *Telemetry) RecordConfirmedUplink(devEUI string, fcntUp uint32, acked bool) {}

// Logf writes one free-form event line, optionally mirrored to stdout.
func (t *Telemetry) Logf(format string, args ...any) {
	if !t.cfg.Active {
		return
	}
	t.logMu.Lock()
	t.log.Printf(format, args...)
	t.logMu.Unlock()
	if t.cfg.PrintlnMirror {
		fmt.Printf(format+"\n", args...)
	}
}
