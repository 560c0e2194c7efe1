// Package logging configures the shared logrus logger and provides the
// verbose provider logger that is toggled by a site setting.
package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// LineFormatter renders entries as
// [2025-12-23 20:14:04] [info ] [service.go:88] message | key=value
type LineFormatter struct{}

// Format renders a single log entry
func (f *LineFormatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	message := strings.TrimRight(entry.Message, "\r\n")

	if entry.Caller != nil {
		fmt.Fprintf(buffer, "[%s] [%-5s] [%s:%d] %s", timestamp, level, filepath.Base(entry.Caller.File), entry.Caller.Line, message)
	} else {
		fmt.Fprintf(buffer, "[%s] [%-5s] %s", timestamp, level, message)
	}

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buffer.WriteString(" |")
		for i, k := range keys {
			if i > 0 {
				buffer.WriteString(",")
			}
			fmt.Fprintf(buffer, " %s=%v", k, entry.Data[k])
		}
	}
	buffer.WriteString("\n")

	return buffer.Bytes(), nil
}

// Setup installs the formatter and picks the output. With a file name the
// output rotates through lumberjack, otherwise it goes to stderr.
func Setup(file string, maxSizeMB int) error {
	log.SetFormatter(&LineFormatter{})

	writerMu.Lock()
	defer writerMu.Unlock()

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}

	if file == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("logging: failed to create log directory: %w", err)
	}

	logWriter = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
	}
	log.SetOutput(logWriter)
	return nil
}

// VerboseLogger writes provider traffic details when verbose logs are enabled
type VerboseLogger struct {
	enabled bool
	logger  log.FieldLogger
}

// NewVerboseLogger creates a verbose logger writing through the standard logger
func NewVerboseLogger(enabled bool) *VerboseLogger {
	return &VerboseLogger{enabled: enabled, logger: log.StandardLogger()}
}

// WithLogger swaps the underlying logger, mainly for tests
func (v *VerboseLogger) WithLogger(logger log.FieldLogger) *VerboseLogger {
	v.logger = logger
	return v
}

// Log writes message when verbose logging is on
func (v *VerboseLogger) Log(message string) {
	if v == nil || !v.enabled {
		return
	}
	v.logger.Infof("Translator: %s", message)
}

// Logf is the formatted variant of Log
func (v *VerboseLogger) Logf(format string, args ...any) {
	if v == nil || !v.enabled {
		return
	}
	v.Log(fmt.Sprintf(format, args...))
}
