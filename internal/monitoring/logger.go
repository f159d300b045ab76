// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Level orders diagnostic severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseLevel maps a level name (case-insensitive) to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("monitoring: unknown log level %q", name)
}

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var threshold atomic.Int32

func init() {
	threshold.Store(int32(LevelInfo))
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetLevel drops messages below l.
func SetLevel(l Level) { threshold.Store(int32(l)) }

// CurrentLevel returns the active threshold.
func CurrentLevel() Level { return Level(threshold.Load()) }

func logAt(l Level, format string, v ...interface{}) {
	if l < CurrentLevel() {
		return
	}
	Logf(l.String()+" "+format, v...)
}

func Debugf(format string, v ...interface{}) { logAt(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logAt(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logAt(LevelWarning, format, v...) }
func Errorf(format string, v ...interface{}) { logAt(LevelError, format, v...) }
