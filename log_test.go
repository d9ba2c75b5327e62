package snp

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	lg, ok := GetLogger().(*defaultLogger)
	if !ok {
		t.Fatalf("expected the default logger")
	}
	prev := lg.Logger.GetLevel()
	defer lg.Logger.SetLevel(prev)

	SetLogLevel("debug")
	if lg.Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level %v", lg.Logger.GetLevel())
	}
	SetLogLevel("loud")
	if lg.Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("unknown level changed it to %v", lg.Logger.GetLevel())
	}
	SetLogLevelMax()
	if lg.Logger.GetLevel() != logrus.TraceLevel {
		t.Fatalf("level %v", lg.Logger.GetLevel())
	}

	child := GetLogger().ChildLogger(map[string]interface{}{"session": "x"}).(*defaultLogger)
	if child.Data["session"] != "x" || child.Logger != lg.Logger {
		t.Fatalf("child logger not derived from the default")
	}
}
