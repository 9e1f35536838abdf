package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger whose key/value pairs pass through a
// redactor before they are written.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	redact        *redactor
}

// New builds a logger for mode:
//
//	prod, production  JSON to stdout
//	cli               console to stderr, no caller or stack traces
//	test              development config to stderr
//	anything else     development config
//
// LOG_LEVEL (debug, info, warn, error) sets the level, default debug.
// LOG_REDACTION_ENABLED and LOG_HASH_SALT control value redaction.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	case "cli":
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.TimeKey = ""
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(os.Getenv("LOG_LEVEL")))
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar(), redact: redactorFromEnv()}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: &redactor{}}
}

func parseLevel(raw string) zapcore.Level {
	raw = strings.TrimSpace(strings.ToLower(raw))
	var lvl zapcore.Level
	if raw == "" || lvl.UnmarshalText([]byte(raw)) != nil {
		return zapcore.DebugLevel
	}
	return lvl
}

func (l *Logger) kvs(kv []interface{}) []interface{} {
	return l.redact.apply(kv)
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.kvs(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.kvs(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.kvs(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.kvs(keysAndValues)...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.kvs(keysAndValues)...)
}

// With returns a child logger carrying the given fields and the same redactor.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if len(keysAndValues) == 0 {
		return l
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(l.kvs(keysAndValues)...), redact: l.redact}
}
