package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestConsoleOutputFormat(t *testing.T) {
	var out bytes.Buffer
	logger := newImpl("impl", DEBUG, true, ConsoleAppender{&out})

	logger.Infow("cycle", "cursor", 3)
	parts := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\t")
	test.That(t, parts, test.ShouldHaveLength, 6)
	test.That(t, parts[0], test.ShouldEndWith, "Z")
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "impl")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "cycle")
	test.That(t, parts[5], test.ShouldEqual, `{"cursor":3}`)

	out.Reset()
	logger.Warn("no fields")
	test.That(t, strings.Split(strings.TrimSpace(out.String()), "\t"), test.ShouldHaveLength, 5)
}

func TestLevelFiltering(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Errorf("kept %d", 2)

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Message, test.ShouldEqual, "kept")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, entries[1].Message, test.ShouldEqual, "kept 2")

	logger.SetLevel(DEBUG)
	logger.Debug("now kept")
	test.That(t, observed.FilterMessage("now kept").Len(), test.ShouldEqual, 1)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("loop").Sublogger("mqtt")

	sub.Infow("connected", "broker", "tcp://localhost:1883")
	entries := observed.FilterMessage("connected").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "loop.mqtt")
	test.That(t, entries[0].ContextMap()["broker"], test.ShouldEqual, "tcp://localhost:1883")

	// levels are independent once split
	sub.SetLevel(ERROR)
	sub.Warn("quiet")
	logger.Warn("loud")
	test.That(t, observed.FilterMessage("quiet").Len(), test.ShouldEqual, 0)
	test.That(t, observed.FilterMessage("loud").Len(), test.ShouldEqual, 1)
}

func TestLevelString(t *testing.T) {
	test.That(t, DEBUG.String(), test.ShouldEqual, "debug")
	test.That(t, ERROR.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interpolator.log")
	appender := NewFileAppender(path)
	logger := NewBlankLogger("file")
	logger.AddAppender(appender)

	logger.Warnw("trajectory dropped", "points", 0)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "WARN\tfile\t")
	test.That(t, string(contents), test.ShouldContainSubstring, "trajectory dropped\t{\"points\":0}")
}
