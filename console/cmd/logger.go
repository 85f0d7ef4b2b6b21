package cmd

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	jlog "github.com/luno/jettison/log"
)

// JSONLogger writes one json object per entry, tagged with the command
// that produced it.
type JSONLogger struct {
	*log.Logger
	command string
}

func (l *JSONLogger) Log(_ context.Context, e jlog.Entry) string {
	if l.command != "" {
		e.SetKey("command", l.command)
	}
	res, err := json.Marshal(e)
	if err != nil {
		l.Logger.Printf("jlogger: failed to marshal log: %v", err)
		l.Logger.Print(e.Message)
		return e.Message
	}
	l.Logger.Print(string(res))
	return string(res)
}

// newLogger returns the logger for a log format. Logs never go to the
// command output writer.
func newLogger(w io.Writer, format, command string) (jlog.Logger, error) {
	switch format {
	case "json":
		return &JSONLogger{Logger: log.New(w, "", 0), command: command}, nil
	case "text":
		return jlog.NewCmdLogger(w, false), nil
	default:
		return nil, errors.New("unknown log format", j.KV("format", format))
	}
}
