// Package logging provides structured leveled logging shared across the scan
// pipeline. It never influences scan outputs (§4.8); it is purely informational.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Level represents the severity of a log message.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

var levelPriority = map[Level]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

// Format is the output format for logs.
type Format string

const (
	JSONFormat  Format = "json"
	HumanFormat Format = "human"
)

// Config holds logger configuration.
type Config struct {
	Format Format
	Level  Level
	Output io.Writer // optional, defaults to stdout
}

// Logger provides structured logging.
type Logger struct {
	config Config
	writer io.Writer
}

// New creates a new Logger with the given configuration.
func New(config Config) *Logger {
	writer := config.Output
	if writer == nil {
		writer = os.Stdout
	}
	if config.Level == "" {
		config.Level = InfoLevel
	}
	if config.Format == "" {
		config.Format = HumanFormat
	}
	return &Logger{config: config, writer: writer}
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (l *Logger) shouldLog(level Level) bool {
	return levelPriority[level] >= levelPriority[l.config.Level]
}

func (l *Logger) log(level Level, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	if l.config.Format == JSONFormat {
		entry := logEntry{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Level:     string(level),
			Message:   msg,
			Fields:    fields,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fmt.Fprintln(l.writer, string(data))
		return
	}

	line := fmt.Sprintf("[%s] %s", level, msg)
	for k, v := range fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	fmt.Fprintln(l.writer, line)
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string, fields map[string]interface{}) { l.log(DebugLevel, msg, fields) }

// Info logs an info-level message.
func (l *Logger) Info(msg string, fields map[string]interface{}) { l.log(InfoLevel, msg, fields) }

// Warn logs a warn-level message.
func (l *Logger) Warn(msg string, fields map[string]interface{}) { l.log(WarnLevel, msg, fields) }

// Error logs an error-level message.
func (l *Logger) Error(msg string, fields map[string]interface{}) { l.log(ErrorLevel, msg, fields) }

// Noop returns a logger that discards everything, for tests and library embedding.
func Noop() *Logger {
	return New(Config{Output: io.Discard, Level: ErrorLevel})
}
