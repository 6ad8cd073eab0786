package container

import "go.uber.org/zap"

// Logger adapts a zap logger to the Info/Error(msg, keysAndValues...) shape
// the application packages depend on.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger wraps logger
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
