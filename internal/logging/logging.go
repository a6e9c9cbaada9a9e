package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// New returns a slog.Logger with the provided level string (info, debug,
// warn, error). format may be "json" or "text".
func New(level string, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogRenderStart logs the beginning of a render job.
func LogRenderStart(logger *slog.Logger, jobID, volumeFile, sliceFile string, frame int, outputPath string) {
	logger.Info("render started",
		"id", jobID,
		"volume", volumeFile,
		"slice", sliceFile,
		"frame", frame,
		"output", outputPath,
	)
}

// LogRenderComplete logs successful render completion.
func LogRenderComplete(logger *slog.Logger, jobID string, duration time.Duration, outputPath string) {
	logger.Info("render completed",
		"id", jobID,
		"duration_ms", duration.Milliseconds(),
		"output", outputPath,
	)
}

// LogRenderError logs render failures.
func LogRenderError(logger *slog.Logger, jobID string, duration time.Duration, err error) {
	logger.Error("render failed",
		"id", jobID,
		"duration_ms", duration.Milliseconds(),
		"error", err.Error(),
	)
}
