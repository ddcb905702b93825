package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Prefix: "ledger", Output: &buf})

	l.Infof("pool %d created", 7)
	l.Warnf("notification failed: %v", errors.New("smtp down"))
	l.Errorf("commit failed: %v", errors.New("deadlock"))
	l.Debugf("hidden at info level")
	l.Close()

	out := buf.String()
	assert.Contains(t, out, "pool 7 created")
	assert.Contains(t, out, "notification failed: smtp down")
	assert.Contains(t, out, "commit failed: deadlock")
	assert.NotContains(t, out, "hidden at info level")
}

func TestLoggerDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Debug: true})
	l.Debugf("visible")
	assert.Contains(t, buf.String(), "visible")
}
