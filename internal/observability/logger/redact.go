package logger

import (
	"github.com/smallbiznis/ftzflow/internal/audit/masking"
	"go.uber.org/zap/zapcore"
)

var signerKeys = func() map[string]struct{} {
	keys := make(map[string]struct{}, len(masking.SignerKeys))
	for _, key := range masking.SignerKeys {
		keys[key] = struct{}{}
	}
	return keys
}()

type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore masks signer identifiers and drops signature payloads
// before they reach the wrapped core.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *redactingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(entry, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, 0, len(fields))
	for _, field := range fields {
		if field.Key == masking.SignatureKey {
			continue
		}
		if _, ok := signerKeys[field.Key]; ok && field.Type == zapcore.StringType {
			field.String = masking.MaskIdentifier(field.String)
		}
		out = append(out, field)
	}
	return out
}
