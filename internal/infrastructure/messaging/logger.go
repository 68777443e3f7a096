package messaging

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// zapLoggerAdapter は watermill のログを zap に流す
type zapLoggerAdapter struct {
	log *zap.Logger
}

// NewLoggerAdapter は zap ロガーを watermill.LoggerAdapter として使えるようにする
func NewLoggerAdapter(log *zap.Logger) watermill.LoggerAdapter {
	return &zapLoggerAdapter{log: log.With(zap.String("component", "watermill"))}
}

func toZapFields(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (a *zapLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(toZapFields(fields), zap.Error(err))...)
}

func (a *zapLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, toZapFields(fields)...)
}

func (a *zapLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, toZapFields(fields)...)
}

// Trace は zap に対応するレベルがないため Debug で出力する
func (a *zapLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, toZapFields(fields)...)
}

func (a *zapLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &zapLoggerAdapter{log: a.log.With(toZapFields(fields)...)}
}
