// Package log provides the node-wide structured logger. The call surface is
// key/value pairs appended to a message, backed by zap.
package log

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Lvl is a log level.
type Lvl int

const (
	LvlError Lvl = iota
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

// LvlFromString returns the appropriate Lvl from a string name.
func LvlFromString(lvlString string) (Lvl, error) {
	switch lvlString {
	case "trace":
		return LvlTrace, nil
	case "debug":
		return LvlDebug, nil
	case "info":
		return LvlInfo, nil
	case "warn":
		return LvlWarn, nil
	case "error":
		return LvlError, nil
	default:
		return LvlInfo, fmt.Errorf("unknown level: %v", lvlString)
	}
}

var (
	root    atomic.Pointer[zap.SugaredLogger]
	tracing atomic.Bool
)

func init() {
	Setup(LvlInfo, false)
}

// Setup (re)configures the root logger with the given verbosity. With json
// set, records are emitted as JSON objects instead of console lines.
func Setup(lvl Lvl, json bool) {
	level := zapcore.InfoLevel
	switch lvl {
	case LvlError:
		level = zapcore.ErrorLevel
	case LvlWarn:
		level = zapcore.WarnLevel
	case LvlInfo:
		level = zapcore.InfoLevel
	case LvlDebug, LvlTrace:
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "t"
	encCfg.MessageKey = "msg"
	encCfg.LevelKey = "lvl"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	root.Store(zap.New(core).Sugar())
	tracing.Store(lvl >= LvlTrace)
}

// Tracing reports whether trace records are being emitted. Callers use it to
// skip building expensive log context.
func Tracing() bool { return tracing.Load() }

// Trace logs a message at the trace level. Trace records share the debug
// level of the underlying logger but are only emitted when tracing is on.
func Trace(msg string, ctx ...interface{}) {
	if tracing.Load() {
		root.Load().Debugw(msg, ctx...)
	}
}

// Debug logs a message at the debug level.
func Debug(msg string, ctx ...interface{}) { root.Load().Debugw(msg, ctx...) }

// Info logs a message at the info level.
func Info(msg string, ctx ...interface{}) { root.Load().Infow(msg, ctx...) }

// Warn logs a message at the warn level.
func Warn(msg string, ctx ...interface{}) { root.Load().Warnw(msg, ctx...) }

// Error logs a message at the error level.
func Error(msg string, ctx ...interface{}) { root.Load().Errorw(msg, ctx...) }

// Crit logs a message at the error level and exits the process. Reserved for
// internal invariant violations that must not silently corrupt state.
func Crit(msg string, ctx ...interface{}) {
	root.Load().Errorw(msg, ctx...)
	_ = root.Load().Sync()
	os.Exit(1)
}
