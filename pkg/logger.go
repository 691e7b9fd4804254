package hepmc

type Logger interface {
	Info(message string, module string)
	Error(string)
}

type nopLogger struct{}

func (nopLogger) Info(string, string) {}
func (nopLogger) Error(string)        {}

var logger Logger = nopLogger{}

func SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	logger = l
}

// GetLogger returns the logger set with SetLogger, so that sibling packages
// log through the same sink.
func GetLogger() Logger {
	return logger
}
