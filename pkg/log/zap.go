// Package log builds the process logger.
package log

import (
	"fmt"
	"time"

	"github.com/webhookx-io/intercom/config/modules"
	"github.com/webhookx-io/intercom/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006/01/02 15:04:05.000"

func encoder(cfg *modules.LogConfig) (zapcore.Encoder, error) {
	switch cfg.Format {
	case modules.LogFormatText:
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(utils.Colorize(t.Format(timeLayout), utils.ColorDarkGray, cfg.Colored))
		}
		ec.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(fmt.Sprintf("%-12s", "["+name+"]"))
		}
		if cfg.Colored {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(ec), nil
	case modules.LogFormatJson:
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("invalid format: %s", cfg.Format)
	}
}

// NewZapLogger builds the logger described by cfg and installs it as the
// zap global logger.
func NewZapLogger(cfg *modules.LogConfig) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(string(cfg.Level))
	if err != nil {
		return nil, err
	}
	enc, err := encoder(cfg)
	if err != nil {
		return nil, err
	}

	sink, _, err := zap.Open(utils.DefaultIfZero(cfg.File, "stdout"))
	if err != nil {
		return nil, err
	}

	logger := zap.New(zapcore.NewCore(enc, sink, level))
	zap.ReplaceGlobals(logger)

	return logger.Sugar(), nil
}
