package shaper

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ZapLogger implements Logger on top of a zap logger. Debug output is gated
// by an atomic level so SetDebug takes effect immediately.
type ZapLogger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// NewDefaultLogger builds a console logger named prefix.
func NewDefaultLogger(prefix string, debug bool) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	if prefix != "" {
		base = base.Named(prefix)
	}
	return &ZapLogger{level: level, sugar: base.Sugar()}
}

// NewZapLogger wraps an already configured zap logger. Its own level still
// applies; SetDebug only lowers or raises the gate in front of it.
func NewZapLogger(base *zap.Logger) *ZapLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if base.Core().Enabled(zapcore.DebugLevel) {
		level.SetLevel(zapcore.DebugLevel)
	}
	return &ZapLogger{level: level, sugar: base.Sugar()}
}

func (l *ZapLogger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *ZapLogger) SetDebug(enabled bool) {
	if enabled {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
}

func (l *ZapLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.sugar.Debugf(format, args...)
}

func (l *ZapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *ZapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}
