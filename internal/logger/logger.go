// Package logger provides the leveled logger shared by the server, the
// consumer and the CLI.  Warnings and errors are also reported to
// Rollbar when a token is configured.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/labstack/gommon/log"
	"github.com/rollbar/rollbar-go"
	rollbarerrors "github.com/rollbar/rollbar-go/errors"
)

// Logger wraps a gommon logger so it can be handed to echo as is.
type Logger struct {
	*log.Logger
	rollbar bool
}

// Options configures New.
type Options struct {
	Prefix       string
	Env          string
	RollbarToken string
	Debug        bool
	Output       io.Writer
}

// New builds a Logger.  Rollbar reporting is enabled only with a token.
func New(o Options) *Logger {
	l := log.New(o.Prefix)
	if o.Output != nil {
		l.SetOutput(o.Output)
	} else {
		l.SetOutput(os.Stdout)
	}
	l.SetHeader(`${time_rfc3339} ${level} ${prefix} ${short_file}:${line}`)
	if o.Debug {
		l.SetLevel(log.DEBUG)
	} else {
		l.SetLevel(log.INFO)
	}

	lg := &Logger{Logger: l}
	if o.RollbarToken != "" {
		rollbar.SetToken(o.RollbarToken)
		rollbar.SetEnvironment(o.Env)
		rollbar.SetStackTracer(rollbarerrors.StackTracer)
		rollbar.SetEnabled(true)
		lg.rollbar = true
	}
	return lg
}

// Warnf logs and reports a warning.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Logger.Warnf(format, args...)
	if l.rollbar {
		rollbar.Warning(fmt.Sprintf(format, args...))
	}
}

// Errorf logs and reports an error.  An error value among args is sent
// to Rollbar so its stack trace is kept.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Logger.Errorf(format, args...)
	if !l.rollbar {
		return
	}
	msg := fmt.Sprintf(format, args...)
	for _, a := range args {
		if err, ok := a.(error); ok {
			rollbar.Error(err, map[string]interface{}{"message": msg})
			return
		}
	}
	rollbar.Error(msg)
}

// Close flushes pending Rollbar reports.
func (l *Logger) Close() {
	if l.rollbar {
		rollbar.Wait()
	}
}
