package emit

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapEmitter writes events as structured zap entries.
//
// Failures (test_fail, assertion_error) are logged at warn level, everything
// else at debug level.
type ZapEmitter struct {
	logger *zap.Logger
}

// NewZapEmitter creates a ZapEmitter. A nil logger discards events.
func NewZapEmitter(logger *zap.Logger) *ZapEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapEmitter{logger: logger}
}

// Emit logs event with its fields and metadata.
func (z *ZapEmitter) Emit(event Event) {
	level := zapcore.DebugLevel
	if event.Msg == MsgTestFail || event.Msg == MsgAssertionError {
		level = zapcore.WarnLevel
	}

	ce := z.logger.Check(level, event.Msg)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, 3+len(event.Meta))
	fields = append(fields,
		zap.String("run_id", event.RunID),
		zap.Int("ordinal", event.Ordinal),
	)
	if event.Section != "" {
		fields = append(fields, zap.String("section", event.Section))
	}
	for k, v := range event.Meta {
		fields = append(fields, zap.Any(k, v))
	}
	ce.Write(fields...)
}
