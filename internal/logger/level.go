package logger

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Level orders log severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var names = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if n, ok := names[l]; ok {
		return n
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseLevel maps DEBUG, INFO, WARN/WARNING and ERROR (any case) to a
// Level. Anything else is INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	}
	return LevelInfo
}

var current atomic.Int32

func init() { current.Store(int32(LevelInfo)) }

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) { current.Store(int32(l)) }

// Enabled reports whether l would be written.
func Enabled(l Level) bool { return int32(l) >= current.Load() }

func output(l Level, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	// depth 3: output -> Xf -> caller
	log.Output(3, "["+l.String()+"] "+fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) { output(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { output(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { output(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { output(LevelError, format, args...) }
