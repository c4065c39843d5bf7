package helpers

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// secretFields are never written to logs, whatever the caller passes.
var secretFields = []string{"password", "password_hash", "code", "verification_code", "token", "reset_token", "access_token", "refresh_token"}

const redacted = "[REDACTED]"

// NewLogger creates a configured Logrus logger. Development gets text output
// at debug level, everything else JSON at info.
func NewLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if strings.EqualFold(env, "development") {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.AddHook(RedactHook{})
	logger.WithFields(logrus.Fields{"app": appName, "env": env}).Info("logger initialized")
	return logger
}

// RedactHook masks credential material in entry fields at info level and
// above. Debug entries stay intact so local runs can read issued codes.
type RedactHook struct{}

func (RedactHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel, logrus.InfoLevel}
}

func (RedactHook) Fire(e *logrus.Entry) error {
	for _, k := range secretFields {
		if _, ok := e.Data[k]; ok {
			e.Data[k] = redacted
		}
	}
	return nil
}

// LogError logs msg at error level with err flattened into the "error" field.
func LogError(logger *logrus.Logger, msg string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logger.WithFields(fields).Error(msg)
}
