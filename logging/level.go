package logging

import "go.uber.org/zap/zapcore"

// Level is a log level. Values line up with zap's so a statement is logged when its level is at
// least the logger's.
type Level int

// Log levels.
const (
	DEBUG Level = iota - 1
	INFO
	WARN
	ERROR
)

func (level Level) String() string {
	return level.AsZap().String()
}

// AsZap converts the Level to a zapcore.Level.
func (level Level) AsZap() zapcore.Level {
	return zapcore.Level(level)
}
