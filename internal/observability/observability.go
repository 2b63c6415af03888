// Package observability wires structured logging the way the teacher
// repo does: github.com/luxfi/log as the logger, with child loggers
// scoped per-component via Logger.With. Fatal/critical events are
// additionally recorded to a size-rotated audit file via
// gopkg.in/natefinch/lumberjack.v2, independent of wherever the
// console logger's own output ends up.
package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	luxlog "github.com/luxfi/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logger type used throughout the indexer.
type Logger = luxlog.Logger

// New returns a component-scoped child of the process root logger.
func New(component string) Logger {
	return luxlog.Root().New("component", component)
}

// ValidateLevel checks that levelName parses as a known log level,
// without otherwise changing logging behavior — config validation is
// the only caller, so a bad level fails startup instead of silently
// falling back to a default.
func ValidateLevel(levelName string) error {
	if levelName == "" {
		return nil
	}
	if _, err := luxlog.ToLevel(levelName); err != nil {
		return fmt.Errorf("parse log level %q: %w", levelName, err)
	}
	return nil
}

// RotationConfig sizes the audit log's rotation policy.
type RotationConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuditLog is a JSON-lines append log for fatal/critical events,
// separate from the console logger so an operator can tail just the
// events that stopped the process.
type AuditLog struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

// NewAuditLog opens (or creates) the rotating audit log file at
// cfg.Path. An empty Path makes lumberjack fall back to its default
// file name in the OS temp directory; size and age limits come only
// from MaxSizeMB, MaxBackups and MaxAgeDays.
func NewAuditLog(cfg RotationConfig) *AuditLog {
	return &AuditLog{
		writer: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		},
	}
}

// Record appends one JSON event line. Errors writing the audit log
// are never fatal to the caller — they're surfaced to stderr instead
// since the console logger may itself be the thing reporting a fatal
// condition.
func (a *AuditLog) Record(event string, fields map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry := make(map[string]any, len(fields)+2)
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["event"] = event
	for k, v := range fields {
		entry[k] = v
	}

	if err := json.NewEncoder(a.writer).Encode(entry); err != nil {
		fmt.Fprintf(os.Stderr, "observability: failed to write audit log: %v\n", err)
	}
}

// Close flushes and closes the underlying rotating file.
func (a *AuditLog) Close() error {
	return a.writer.Close()
}
