package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is shared by every package of the service.
var Logger = logrus.New()

// serviceHook prefixes every message with the service name.
type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(entry *logrus.Entry) error {
	entry.Message = "[" + h.service + "] " + entry.Message
	return nil
}

// InitLogger configures Logger for service. An unknown level falls back to
// info; format "json" switches to structured output.
func InitLogger(service, level, format string) {
	Logger.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		defer Logger.Warnf("unknown log level %q, using info", level)
	}
	Logger.SetLevel(lvl)

	switch format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Logger.AddHook(serviceHook{service: service})
}
