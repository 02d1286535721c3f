package application

import "log/slog"

const ModuleName = "internal-ops/script-runner-service"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
