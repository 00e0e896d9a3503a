// Package zerolog builds logger.Logger values on top of github.com/rs/zerolog.
package zerolog

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/raykavin/chartview/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Options configures New
type Options struct {
	Level          string // zerolog level name, e.g. "info"
	DateTimeLayout string
	Colored        bool
	JSON           bool
}

// New returns a console (or JSON) logger writing to out
func New(out io.Writer, opts Options) (logger.Logger, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	if opts.Level == "" {
		opts.Level = zerolog.LevelInfoValue
	}
	if opts.DateTimeLayout == "" {
		opts.DateTimeLayout = time.DateTime
	}

	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	var base zerolog.Logger
	if opts.JSON {
		base = zerolog.New(out)
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:             out,
			NoColor:         !opts.Colored,
			TimeFormat:      opts.DateTimeLayout,
			FormatLevel:     formatLevel,
			FormatMessage:   formatMessage,
			FormatCaller:    formatCaller,
			FormatTimestamp: func(i interface{}) string { return formatTimestamp(i, opts.DateTimeLayout) },
		})
	}

	l := base.Level(level).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return NewAdapter(&l), nil
}

func formatLevel(i interface{}) string {
	levelStr, ok := i.(string)
	if !ok {
		return "UNKNOWN"
	}

	switch levelStr {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	default:
		return term.Whitef("[UNK]")
	}
}

func formatMessage(i interface{}) string {
	const maxSize = 60

	msg, ok := i.(string)
	if !ok || len(msg) == 0 {
		return ">"
	}

	if len(msg) > maxSize {
		msg = msg[:maxSize]
	} else {
		msg += strings.Repeat(" ", maxSize-len(msg))
	}

	return term.Whitef("> %s", msg)
}

func formatCaller(i interface{}) string {
	const maxFileSize = 16
	const maxLineSize = 4

	fname, ok := i.(string)
	if !ok || len(fname) == 0 {
		return ""
	}

	caller := filepath.Base(fname)
	fileBase, line, found := strings.Cut(caller, ":")
	if !found {
		return caller
	}

	if len(fileBase) > maxFileSize {
		fileBase = fileBase[:maxFileSize]
	} else {
		fileBase = fmt.Sprintf("%-*s", maxFileSize, fileBase)
	}

	// keep the line column fixed width, truncating from the left
	if len(line) > maxLineSize {
		line = line[len(line)-maxLineSize:]
	} else {
		line = fmt.Sprintf("%*s", maxLineSize, line)
	}

	return term.Yellowf("[%s:%s]", fileBase, line)
}

func formatTimestamp(i interface{}, timeLayout string) string {
	strTime, ok := i.(string)
	if !ok {
		return term.Cyanf("[%s]", i)
	}

	if ts, err := time.ParseInLocation(time.RFC3339, strTime, time.Local); err == nil {
		strTime = ts.In(time.Local).Format(timeLayout)
	}

	return term.Cyanf("[%s]", strTime)
}
