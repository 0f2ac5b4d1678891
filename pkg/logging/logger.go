// Package logging adapts zerolog to the crud.Logger interface.
package logging

import (
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/rs/zerolog"
)

// Logger writes crud log events through zerolog.
type Logger struct {
	zl zerolog.Logger
}

var _ crud.Logger = (*Logger)(nil)

// New creates a Logger from cfg.
func New(cfg *Config) *Logger {
	return &Logger{zl: NewZerolog(cfg)}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Zerolog returns the underlying logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// With returns a Logger that adds fields to every event.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}
