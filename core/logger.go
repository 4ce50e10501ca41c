package core

// Logger is implemented by any logging service.
// expected args: error, map[string]interface{}, user.User
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Notifier surfaces transient notices (toasts) to the operator.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}
