package actions

import "fmt"

// Level is the severity of a notice.
type Level string

// Notice levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Infof builds an info notice.
func Infof(format string, args ...interface{}) Notice {
	return Notice{Level: LevelInfo, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning notice.
func Warnf(format string, args ...interface{}) Notice {
	return Notice{Level: LevelWarning, Message: fmt.Sprintf(format, args...)}
}

// Errorf builds an error notice.
func Errorf(format string, args ...interface{}) Notice {
	return Notice{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

// Notifier delivers notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f.
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}
