// Package logging builds the zap loggers used by the socks daemons: colored
// console output by default, JSON optionally, with file outputs rotated by
// lumberjack.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config defines logger settings.
type Config struct {
	// Level: debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format: console or json.
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths.
	Outputs []string `mapstructure:"outputs"`
	// Rotation controls rotation of file outputs.
	Rotation Rotation `mapstructure:"rotation"`
}

// Rotation controls log file rotation for file outputs.
type Rotation struct {
	Enable     bool `mapstructure:"enable"`
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// Setup builds a zap.Logger from c, installs it as the global logger and
// redirects the stdlib log package. The caller should defer logger.Sync().
func Setup(c Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(c.Level) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}

	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	var cores []zapcore.Core
	for _, out := range outputs {
		var ws zapcore.WriteSyncer
		switch strings.ToLower(out) {
		case "stdout":
			ws = zapcore.AddSync(os.Stdout)
		case "stderr":
			ws = zapcore.AddSync(os.Stderr)
		default:
			ws = fileSyncer(out, c.Rotation)
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	zap.ReplaceGlobals(logger)
	zap.RedirectStdLog(logger)
	return logger, nil
}

func fileSyncer(path string, r Rotation) zapcore.WriteSyncer {
	if r.Enable {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    defaultInt(r.MaxSizeMB, 10),
			MaxBackups: defaultInt(r.MaxBackups, 3),
			MaxAge:     defaultInt(r.MaxAgeDays, 7),
			Compress:   r.Compress,
		})
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(f)
}

func defaultInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
