package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func init() {
	// Логгер по умолчанию, чтобы пакеты могли писать до вызова Init (например, в тестах).
	Log = logrus.New()
	Log.SetLevel(logrus.InfoLevel)
}

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// EnableFileRotation дублирует вывод в файл с суточной ротацией.
// Хранит файлы за maxAge, текущий файл доступен по симлинку <dir>/bff.log.
func EnableFileRotation(dir string, maxAge time.Duration) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("logger: не удалось создать каталог логов %s: %w", dir, err)
	}

	writer, err := rotatelogs.New(
		filepath.Join(dir, "bff.%Y%m%d.log"),
		rotatelogs.WithLinkName(filepath.Join(dir, "bff.log")),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("logger: не удалось настроить ротацию: %w", err)
	}

	Log.SetOutput(io.MultiWriter(os.Stdout, writer))
	return nil
}
