package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log общий логгер сервиса. До вызова Init пишет в stderr с уровнем info,
// поэтому пакеты могут логировать без проверки на nil.
var Log = logrus.New()

// Init настраивает уровень и формат логов.
// В development используется текстовый формат, иначе JSON.
func Init(level, env string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "development" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// Silence отключает вывод (используется в тестах).
func Silence() {
	Log.SetOutput(io.Discard)
}

// Component возвращает запись лога с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
