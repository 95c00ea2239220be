package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of a FileAppender.
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 3
)

// FileAppender writes console formatted lines to a size rotated file.
type FileAppender struct {
	out *lumberjack.Logger
}

// NewFileAppender returns an appender writing to path. Old files are compressed and at most
// fileMaxBackups of them are kept.
func NewFileAppender(path string) *FileAppender {
	return &FileAppender{out: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		Compress:   true,
	}}
}

// Write outputs the log entry to the file.
func (fa *FileAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(fa.out, line)
	return err
}

// Sync is a no-op, lines are not buffered.
func (fa *FileAppender) Sync() error {
	return nil
}

// Close closes the current file.
func (fa *FileAppender) Close() error {
	return fa.out.Close()
}
