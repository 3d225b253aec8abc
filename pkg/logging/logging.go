// Package logging builds the zap logger the command line hands to every component.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	breverrors "github.com/brevdev/fleet/pkg/errors"
)

// New returns a console logger writing to stderr at level ("debug", "info", "warn", ...).
func New(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	cfg := zap.Config{
		Level:            lvl,
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, breverrors.WrapAndTrace(err)
	}
	return log, nil
}
