package abi

import (
	"fmt"

	"go.uber.org/zap"
)

// Output is the host logging surface: one method per channel.
type Output interface {
	Verbose(format string, args ...any)
	Message(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
	Test(format string, args ...any)
}

// LogOutput routes the output channels to a zap logger. The channel name is
// kept in the "channel" field.
type LogOutput struct {
	log *zap.Logger
}

func NewLogOutput(l *zap.Logger) *LogOutput {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogOutput{log: l}
}

func (o *LogOutput) Verbose(format string, args ...any) {
	o.log.Debug(fmt.Sprintf(format, args...), zap.String("channel", "verbose"))
}

func (o *LogOutput) Message(format string, args ...any) {
	o.log.Info(fmt.Sprintf(format, args...), zap.String("channel", "message"))
}

func (o *LogOutput) Warning(format string, args ...any) {
	o.log.Warn(fmt.Sprintf(format, args...), zap.String("channel", "warning"))
}

func (o *LogOutput) Error(format string, args ...any) {
	o.log.Error(fmt.Sprintf(format, args...), zap.String("channel", "error"))
}

func (o *LogOutput) Debug(format string, args ...any) {
	o.log.Debug(fmt.Sprintf(format, args...), zap.String("channel", "debug"))
}

func (o *LogOutput) Test(format string, args ...any) {
	o.log.Info(fmt.Sprintf(format, args...), zap.String("channel", "test"))
}
