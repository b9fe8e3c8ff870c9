package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.Debugf("d")
		l.Infof("i")
		l.Warnf("w")
		l.Errorf("e")
	})
}
