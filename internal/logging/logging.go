// Package logging builds the zap loggers used by the installer.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// FileName is the run log written under the logs directory.
const FileName = "installer.log"

// Config selects the level and encoding of a logger.
type Config struct {
	Level  string
	Format string
}

// New creates a zap logger writing to w.
func New(cfg Config, w io.Writer) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		encoderCfg := encoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	case FormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig())
	default:
		return nil, fmt.Errorf(messages.LoggingInvalidFormatFmt, cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core), nil
}

// WithRunID returns a logger tagged with the run identifier.
func WithRunID(l *zap.Logger, runID string) *zap.Logger {
	if runID == "" {
		return l
	}
	return l.With(zap.String("run_id", runID))
}

// FileSink is a write target for the run log that buffers entries in memory
// until Open attaches a file. It lets a run record entries before the logs
// directory exists.
type FileSink struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	file *os.File
}

// Write appends p to the file once open, or to the in-memory buffer.
func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Write(p)
	}
	return s.buf.Write(p)
}

// Sync flushes the file to disk when one is attached.
func (s *FileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Sync()
}

// Open appends the buffered entries to path and routes later writes there.
// Opening an already open sink is a no-op.
func (s *FileSink) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf(messages.LoggingOpenFileFmt, path, err)
	}
	if _, err := file.Write(s.buf.Bytes()); err != nil {
		_ = file.Close()
		return fmt.Errorf(messages.LoggingOpenFileFmt, path, err)
	}
	s.buf.Reset()
	s.file = file
	return nil
}

// IsOpen reports whether a file is attached.
func (s *FileSink) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file != nil
}

// Close closes the attached file and drops anything still buffered.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	if s.file == nil {
		return nil
	}
	_ = s.file.Sync()
	err := s.file.Close()
	s.file = nil
	return err
}

// WithSink tees l into a JSON core writing to a new FileSink at debug level.
// fields are added to the sink entries only, since fields already bound to l
// do not reach the new core.
func WithSink(l *zap.Logger, fields ...zap.Field) (*zap.Logger, *FileSink) {
	sink := &FileSink{}
	sinkCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), sink, zapcore.DebugLevel).With(fields)
	return zap.New(zapcore.NewTee(l.Core(), sinkCore)), sink
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.LevelKey = "level"
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func parseLevel(raw string) (zapcore.Level, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(trimmed)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf(messages.LoggingInvalidLevelFmt, raw)
	}
	return level, nil
}
