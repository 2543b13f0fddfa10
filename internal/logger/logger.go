package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type Level int

const (
	INFO Level = iota
	WARN
	ERROR
	DEBUG
)

var (
	// ANSI colors
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"

	// Output writer (defaults to stdout)
	out io.Writer = os.Stdout

	// Optional plain-text file sink (actions.log)
	fileMu  sync.Mutex
	logFile io.WriteCloser

	// Log channel for dashboard (optional)
	logChan   chan Entry
	logChanMu sync.RWMutex
)

// Entry is a structured log message, streamed to the dashboard when a
// channel is attached.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// Init sets up the logger.
func Init() {
	if os.Getenv("NO_COLOR") != "" {
		DisableColors()
	}
}

func DisableColors() {
	colorReset = ""
	colorRed = ""
	colorGreen = ""
	colorYellow = ""
	colorGray = ""
	colorCyan = ""
}

// SetLogFile opens path for appending and mirrors every message there
// without colors. Returns an error if the file cannot be opened.
func SetLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	fileMu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	fileMu.Unlock()
	return nil
}

// SetLogChannel sets a channel to stream logs to (e.g., for the dashboard).
func SetLogChannel(ch chan Entry) {
	logChanMu.Lock()
	defer logChanMu.Unlock()
	logChan = ch
}

func log(level Level, component string, format string, args ...interface{}) {
	now := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)

	var levelStr string
	var color string

	switch level {
	case INFO:
		levelStr = "INFO"
		color = colorGreen
	case WARN:
		levelStr = "WARN"
		color = colorYellow
	case ERROR:
		levelStr = "ERROR"
		color = colorRed
	case DEBUG:
		levelStr = "DEBUG"
		color = colorGray
	}

	consoleLog := fmt.Sprintf("%s[%s]%s %s[%s]%s %s[%s]%s: %s\n",
		colorGray, now, colorReset,
		color, levelStr, colorReset,
		colorCyan, component, colorReset,
		msg,
	)
	fmt.Fprint(out, consoleLog)

	fileMu.Lock()
	if logFile != nil {
		fmt.Fprintf(logFile, "%s [%s] [%s] %s\n",
			time.Now().Format("2006-01-02 15:04"), levelStr, component, msg)
	}
	fileMu.Unlock()

	entry := Entry{
		Timestamp: now,
		Level:     levelStr,
		Component: component,
		Message:   msg,
	}

	logChanMu.RLock()
	if logChan != nil {
		select {
		case logChan <- entry:
		default:
			// Drop log if channel is full
		}
	}
	logChanMu.RUnlock()
}

func Info(component string, format string, args ...interface{}) {
	log(INFO, component, format, args...)
}

func Warn(component string, format string, args ...interface{}) {
	log(WARN, component, format, args...)
}

func Error(component string, format string, args ...interface{}) {
	log(ERROR, component, format, args...)
}

func Debug(component string, format string, args ...interface{}) {
	log(DEBUG, component, format, args...)
}
