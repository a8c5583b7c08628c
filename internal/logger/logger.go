package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
}

// Logger writes colored lines to a terminal writer and, when a file sink
// is configured, one JSON object per line to that file.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	file     *os.File
	minLevel Level
	colored  bool
}

// New returns a logger writing to out.  Colors are only emitted when out is
// stdout or stderr and fatih/color detected a terminal.
func New(out io.Writer, minLevel Level) *Logger {
	colored := !color.NoColor && (out == os.Stdout || out == os.Stderr)
	return &Logger{out: out, minLevel: minLevel, colored: colored}
}

// Nop discards everything.
func Nop() *Logger { return &Logger{out: io.Discard, minLevel: ERROR + 1} }

// WithFile adds a JSON-lines sink.  The directory is created if needed.
func (l *Logger) WithFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	l.mu.Lock()
	l.file = f
	l.mu.Unlock()
	return nil
}

// ParseLevel maps LOG_LEVEL values; unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l *Logger) log(level Level, category, message string) {
	if l == nil || level < l.minLevel {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	}
	entry := Entry{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     levelName(level),
		Category:  strings.ToUpper(category),
		Message:   message,
		File:      file,
		Line:      line,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, l.formatTerminal(entry))
	if l.file != nil {
		b, _ := json.Marshal(entry)
		l.file.Write(append(b, '\n'))
	}
}

func (l *Logger) formatTerminal(e Entry) string {
	ts := e.Timestamp[11:19]
	if !l.colored {
		return fmt.Sprintf("%s %-5s [%-11s] %s (%s:%d)\n", ts, e.Level, e.Category, e.Message, e.File, e.Line)
	}

	var lc *color.Color
	switch e.Level {
	case "DEBUG":
		lc = color.New(color.FgCyan)
	case "WARN":
		lc = color.New(color.FgYellow)
	case "ERROR":
		lc = color.New(color.FgRed)
	default:
		lc = color.New(color.FgGreen)
	}
	return fmt.Sprintf("%s %s %s %s%s\n",
		color.New(color.FgBlue).Sprint(ts),
		lc.Sprintf("%-5s", e.Level),
		lc.Add(color.Bold).Sprintf("[%-11s]", e.Category),
		e.Message,
		color.New(color.FgMagenta).Sprintf(" (%s:%d)", e.File, e.Line),
	)
}

func levelName(level Level) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (l *Logger) Debug(category, message string) { l.log(DEBUG, category, message) }
func (l *Logger) Info(category, message string)  { l.log(INFO, category, message) }
func (l *Logger) Warn(category, message string)  { l.log(WARN, category, message) }
func (l *Logger) Error(category, message string) { l.log(ERROR, category, message) }

// Specialized helpers used by the components.

func (l *Logger) LogAPI(method, path string, status int, d time.Duration) {
	l.log(INFO, "API", fmt.Sprintf("%s %s - %d (%s)", method, path, status, d.Round(time.Microsecond)))
}

func (l *Logger) LogDatabase(operation, table, message string) {
	l.log(INFO, "DATABASE", fmt.Sprintf("[%s] %s - %s", operation, table, message))
}

func (l *Logger) LogBooking(action, showtimeID, message string) {
	l.log(INFO, "BOOKING", fmt.Sprintf("[%s] %s - %s", action, showtimeID, message))
}

func (l *Logger) LogQueue(action, queue, message string) {
	l.log(INFO, "QUEUE", fmt.Sprintf("[%s] %s - %s", action, queue, message))
}

// Failure variants of the helpers above log at ERROR so they survive a
// raised LOG_LEVEL.

func (l *Logger) LogDatabaseError(operation, table string, err error) {
	l.log(ERROR, "DATABASE", fmt.Sprintf("[%s] %s - %v", operation, table, err))
}

func (l *Logger) LogBookingError(action, showtimeID string, err error) {
	l.log(ERROR, "BOOKING", fmt.Sprintf("[%s] %s - %v", action, showtimeID, err))
}

func (l *Logger) LogQueueError(action, queue string, err error) {
	l.log(ERROR, "QUEUE", fmt.Sprintf("[%s] %s - %v", action, queue, err))
}

func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
