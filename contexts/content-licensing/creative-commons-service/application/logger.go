package application

import "log/slog"

const ModuleName = "content-licensing/creative-commons-service"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
