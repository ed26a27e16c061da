package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewFormatterByEnv(t *testing.T) {
	if _, ok := New("production", "info").Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatal("production should log json")
	}
	if _, ok := New("dev", "info").Formatter.(*logrus.TextFormatter); !ok {
		t.Fatal("dev should log text")
	}
}

func TestNewLevel(t *testing.T) {
	if got := New("dev", "DEBUG").GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("level = %s", got)
	}
	if got := New("dev", "chatty").GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("invalid level should fall back to info, got %s", got)
	}
}
