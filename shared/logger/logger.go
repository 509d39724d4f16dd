package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// Config - настройки логгеров сервиса. Level и Encoding приходят из LOG_LEVEL и LOG_ENCODING.
type Config struct {
	Level    string
	Encoding string
	// Service добавляется полем service в каждую запись, одинаково для zap и zerolog.
	Service string
}

func (c Config) encoding() string {
	if strings.EqualFold(c.Encoding, EncodingConsole) {
		return EncodingConsole
	}
	return EncodingJSON
}

func (c Config) levelText() string {
	if c.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Level)
}

// New создает zap.Logger сервиса. Неизвестный уровень заменяется на info.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.levelText())); err != nil {
		// Логгера еще нет, пишем в stderr
		fmt.Fprintf(os.Stderr, "Invalid log level '%s', using 'info'. Error: %v\n", cfg.Level, err)
		level.SetLevel(zap.InfoLevel)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if cfg.encoding() == EncodingConsole {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapConfig := zap.Config{
		Level:             level,
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          cfg.encoding(),
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Service != "" {
		zapConfig.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// NewZerolog создает zerolog.Logger с теми же уровнем, форматом и полем service.
// Нужен хабу и мигратору.
func NewZerolog(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.levelText())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.encoding() == EncodingConsole {
		out = zerolog.ConsoleWriter{Out: out}
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return ctx.Logger()
}
