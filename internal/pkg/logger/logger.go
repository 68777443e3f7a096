// Package logger はアプリケーション全体で共有する zap ロガーを提供する
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

func init() {
	log = New(Config{Env: "development"})
}

// Config はロガーの設定
type Config struct {
	Env   string // production 以外は開発用の出力
	Level string // debug, info, warn, error。空または不正な値は環境の既定値
}

// New は設定に応じたロガーを作成する
func New(cfg Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.Env == "production" {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err == nil {
			zcfg.Level = zap.NewAtomicLevelAt(level)
		}
	}

	l, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l.With(zap.String("service", "train-ticket-reservation"))
}

// Init はグローバルロガーを設定に従って作り直す
func Init(cfg Config) *zap.Logger {
	log = New(cfg)
	return log
}

func Get() *zap.Logger {
	return log
}

func Set(l *zap.Logger) {
	log = l
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return log.With(fields...)
}

func Sync() error {
	return log.Sync()
}
