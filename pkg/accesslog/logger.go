package accesslog

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/webhookx-io/intercom/utils"
)

const (
	timeLayout = "2006/01/02 15:04:05.000"
	fieldTime  = "ts"
	fieldName  = "name"
)

// Logger writes one line per served request
type Logger interface {
	Log(ctx context.Context, entry *Entry)
}

type Options struct {
	File    string
	Format  string
	Colored bool
}

// New opens opts.File, "/dev/stdout" writes to the process stdout
func New(name string, opts Options) (Logger, error) {
	if opts.File == "" {
		return nil, errors.New("accesslog file is required")
	}

	var w io.Writer = os.Stdout
	if opts.File != "/dev/stdout" {
		file, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return nil, err
		}
		w = file
	}
	return NewLogger(name, w, opts)
}

// NewLogger writes entries of the given format to w. opts.File is ignored.
func NewLogger(name string, w io.Writer, opts Options) (Logger, error) {
	switch opts.Format {
	case "text":
		console := zerolog.ConsoleWriter{
			Out:           w,
			NoColor:       !opts.Colored,
			PartsOrder:    []string{fieldTime, fieldName, zerolog.MessageFieldName},
			FieldsExclude: []string{fieldTime, fieldName},
		}
		name = utils.Colorize("["+name+"]", utils.ColorDarkGray, opts.Colored)
		return &logger{zl: zerolog.New(console).With().Str(fieldName, name).Logger(), text: true}, nil
	case "json":
		return &logger{zl: zerolog.New(w).With().Str(fieldName, name).Logger()}, nil
	default:
		return nil, errors.New("invalid format: " + opts.Format)
	}
}

type logger struct {
	zl   zerolog.Logger
	text bool
}

func (l *logger) Log(ctx context.Context, entry *Entry) {
	e := l.zl.Log().Ctx(ctx).Str(fieldTime, time.Now().Format(timeLayout))
	if l.text {
		e.Msg(entry.String())
		return
	}
	e.EmbedObject(entry).Send()
}
