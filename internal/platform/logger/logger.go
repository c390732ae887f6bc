package logger

import (
	"log/slog"
	"os"
)

// New returns the JSON slog logger shared by all components.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
