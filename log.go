package hwcodec

import (
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
)

// LogEnv is the environment variable holding the process log filter.
const LogEnv = "HWCODEC_LOG"

// Level is the five-step severity scale shared with native backend code.
type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// hclogLevel maps a Level to hclog. Out of range levels map to NoLevel.
func (l Level) hclogLevel() hclog.Level {
	switch l {
	case LevelError:
		return hclog.Error
	case LevelWarn:
		return hclog.Warn
	case LevelInfo:
		return hclog.Info
	case LevelDebug:
		return hclog.Debug
	case LevelTrace:
		return hclog.Trace
	default:
		return hclog.NoLevel
	}
}

var (
	logOnce   sync.Once
	logRoot   hclog.Logger = hclog.NewNullLogger()
	logNative hclog.Logger = hclog.NewNullLogger()
	logMu     sync.RWMutex
)

// InitLogging installs the process-wide logger. level is an hclog level
// name ("trace" .. "error", "off"); when empty the HWCODEC_LOG environment
// variable is used, defaulting to "info". Only the first call has effect.
func InitLogging(level string) hclog.Logger {
	logOnce.Do(func() {
		if level == "" {
			level = os.Getenv(LogEnv)
		}
		if level == "" {
			level = "info"
		}
		lvl := hclog.LevelFromString(strings.ToLower(level))
		if lvl == hclog.NoLevel {
			lvl = hclog.Info
		}
		l := hclog.New(&hclog.LoggerOptions{
			Name:   "hwcodec",
			Level:  lvl,
			Output: os.Stderr,
		})
		logMu.Lock()
		logRoot = l
		logNative = l.Named("native")
		logMu.Unlock()
	})
	return Log()
}

// Log returns the process logger. Before InitLogging it discards output.
func Log() hclog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logRoot
}

// NativeLog forwards one message from native backend code. Messages with an
// unknown level or invalid UTF-8 are dropped.
func NativeLog(level Level, msg []byte) {
	lvl := level.hclogLevel()
	if lvl == hclog.NoLevel || !utf8.Valid(msg) {
		return
	}
	logMu.RLock()
	l := logNative
	logMu.RUnlock()
	l.Log(lvl, strings.TrimRight(string(msg), "\r\n"))
}

func loggerOr(l hclog.Logger) hclog.Logger {
	if l == nil {
		return Log()
	}
	return l
}
