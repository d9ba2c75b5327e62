package snp

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is what the host, the transports, the simulated NP and the input
// sources log through. Hosts tag their child logger with a session id.
type Logger interface {
	Info(...interface{})
	Debug(...interface{})
	Error(...interface{})
	Warn(...interface{})

	Infof(string, ...interface{})
	Debugf(string, ...interface{})
	Errorf(string, ...interface{})
	Warnf(string, ...interface{})

	ChildLogger(tags map[string]interface{}) Logger
}

var (
	logger   Logger
	loggerMu sync.Mutex
)

// SetLogLevelMax turns on trace output, which includes every frame the
// host sends to the NP.
func SetLogLevelMax() {
	SetLogLevel("trace")
}

// SetLogLevel sets the level of the default logger by logrus level name,
// as given by snpctl's --log-level. Unknown names leave the level unchanged.
func SetLogLevel(level string) {
	l := GetLogger()

	lg, ok := l.(*defaultLogger)
	if !ok {
		l.Error("non-default logger, don't know how to set level")
		return
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.Warnf("invalid log level %q: %v", level, err)
		return
	}
	lg.Entry.Logger.SetLevel(lvl)
}

// SetLogger replaces the default logger. Hosts created before the call keep
// the logger they started with.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// GetLogger returns the module logger, building the logrus default (text,
// no timestamps, stderr, info) on first use.
func GetLogger() Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger == nil {
		logger = buildDefaultLogger()
	}

	return logger
}

type defaultLogger struct {
	*logrus.Entry
}

func buildDefaultLogger() Logger {
	l := &logrus.Logger{
		Formatter: &logrus.TextFormatter{DisableTimestamp: true},
		Level:     logrus.InfoLevel,
		Out:       os.Stderr,
		Hooks:     make(logrus.LevelHooks),
	}

	return &defaultLogger{Entry: l.WithFields(map[string]interface{}{})}
}

func (d *defaultLogger) ChildLogger(ff map[string]interface{}) Logger {
	return &defaultLogger{d.Entry.WithFields(ff)}
}
