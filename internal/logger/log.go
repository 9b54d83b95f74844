package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger on stderr, leaving stdout to command
// output. Debug mode logs everything in console format; otherwise info and
// above are written as JSON.
func New(debug bool) *zap.Logger {
	return NewWithWriter(debug, os.Stderr)
}

func NewWithWriter(debug bool, w io.Writer) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	encoder := zapcore.NewConsoleEncoder(config)
	level := zapcore.DebugLevel

	if !debug {
		level = zapcore.InfoLevel
		encoder = zapcore.NewJSONEncoder(config)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}
