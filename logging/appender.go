package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

const timeFormat = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. It is the write half of a zapcore.Core, so an observer
// core can be used as an appender directly.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// ConsoleAppender writes tab delimited lines to a writer.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that writes to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// Write outputs the log entry to the underlying stream.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(appender.Writer, line)
	return err
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

type testAppender struct {
	tb testing.TB
}

// NewTestAppender returns an appender that logs through tb, so lines show up under the test
// that wrote them.
func NewTestAppender(tb testing.TB) Appender {
	return &testAppender{tb}
}

func (tapp *testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tapp.tb.Helper()
	line, err := formatEntry(entry, fields)
	tapp.tb.Log(line)
	return err
}

func (tapp *testAppender) Sync() error {
	return nil
}

var fieldEncoderConfig = zapcore.EncoderConfig{SkipLineEnding: true}

// formatEntry renders `time LEVEL name caller msg {fields}`, tab delimited. The name and caller
// columns are left out when empty; fields are json in the order given.
func formatEntry(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	var sb strings.Builder
	sb.WriteString(entry.Time.Format(timeFormat))
	sb.WriteString("\t")
	sb.WriteString(entry.Level.CapitalString())
	if entry.LoggerName != "" {
		sb.WriteString("\t")
		sb.WriteString(entry.LoggerName)
	}
	if entry.Caller.Defined {
		sb.WriteString("\t")
		sb.WriteString(entry.Caller.TrimmedPath())
	}
	sb.WriteString("\t")
	sb.WriteString(entry.Message)
	if len(fields) == 0 {
		return sb.String(), nil
	}

	// an empty entry leaves only the fields in the encoded object
	buf, err := zapcore.NewJSONEncoder(fieldEncoderConfig).EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return sb.String(), err
	}
	defer buf.Free()
	sb.WriteString("\t")
	sb.WriteString(buf.String())
	return sb.String(), nil
}
