package log

import "go.uber.org/zap"

var (
	Bool       = zap.Bool
	Float64    = zap.Float64
	Int        = zap.Int
	Int64      = zap.Int64
	Int32      = zap.Int32
	Int16      = zap.Int16
	Uint32     = zap.Uint32
	String     = zap.String
	Strings    = zap.Strings
	Ints       = zap.Ints
	Int32s     = zap.Int32s
	Stringer   = zap.Stringer
	Time       = zap.Time
	Duration   = zap.Duration
	Any        = zap.Any
	ErrorField = zap.Error
	NamedError = zap.NamedError
)
