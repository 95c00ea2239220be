package logging

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used throughout the interpolator: the sugared zap API plus
// appender and level management.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	SetLevel(level Level)
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	Sync() error
}

// impl routes every entry the sugared logger accepts through its fanout core.
type impl struct {
	*zap.SugaredLogger
	name string
	core *fanoutCore
}

func newImpl(name string, level Level, inUTC bool, appenders ...Appender) *impl {
	return newImplWithCore(name, &fanoutCore{
		level:     zap.NewAtomicLevelAt(level.AsZap()),
		inUTC:     inUTC,
		appenders: appenders,
	})
}

func newImplWithCore(name string, core *fanoutCore) *impl {
	return &impl{
		SugaredLogger: zap.New(core, zap.AddCaller()).Named(name).Sugar(),
		name:          name,
		core:          core,
	}
}

func (imp *impl) SetLevel(level Level) {
	imp.core.level.SetLevel(level.AsZap())
}

func (imp *impl) AddAppender(appender Appender) {
	imp.core.appenders = append(imp.core.appenders, appender)
}

// Sublogger returns a logger named "<name>.<subname>" that starts at this logger's level and
// writes to its current appenders. Later level or appender changes on either logger do not
// affect the other.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return newImplWithCore(name, &fanoutCore{
		level:     zap.NewAtomicLevelAt(imp.core.level.Level()),
		inUTC:     imp.core.inUTC,
		appenders: append([]Appender(nil), imp.core.appenders...),
	})
}

// fanoutCore is a zapcore.Core that filters by level and writes each entry to every appender.
type fanoutCore struct {
	level     zap.AtomicLevel
	inUTC     bool
	appenders []Appender
	fields    []zapcore.Field
}

func (c *fanoutCore) Enabled(level zapcore.Level) bool {
	return c.level.Enabled(level)
}

func (c *fanoutCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *fanoutCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *fanoutCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if c.inUTC {
		entry.Time = entry.Time.UTC()
	}
	if len(c.fields) > 0 {
		fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	}
	var errs error
	for _, appender := range c.appenders {
		errs = multierr.Append(errs, appender.Write(entry, fields))
	}
	return errs
}

func (c *fanoutCore) Sync() error {
	var errs error
	for _, appender := range c.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}
