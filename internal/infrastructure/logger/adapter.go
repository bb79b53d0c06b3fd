package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"browsertools/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

type Config struct {
	Dir   string
	Level string
	Name  string
}

// LoggerAdapter writes JSON lines through zap. Derived loggers share the
// underlying file; only the root adapter closes it.
type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

// NewLoggerAdapter creates <dir>/<timestamp>_<name>.log and logs into it.
func NewLoggerAdapter(cfg Config) (*LoggerAdapter, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "log"
	}
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(cfg.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level)

	return &LoggerAdapter{
		sugar: zap.New(core).Sugar(),
		file:  file,
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *LoggerAdapter {
	return &LoggerAdapter{sugar: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger, e.g. an observer core in tests.
func FromZap(l *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{sugar: l.Sugar()}
}

func (l *LoggerAdapter) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *LoggerAdapter) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *LoggerAdapter) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *LoggerAdapter) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{sugar: l.sugar.With(key, value)}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{sugar: l.sugar.With(args...)}
}

func (l *LoggerAdapter) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

func (l *LoggerAdapter) Close() error {
	_ = l.sugar.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "browsertools"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
