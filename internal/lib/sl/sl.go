package sl

import "log/slog"

// Err attaches an error to a log record under a fixed key.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module tags a logger with the component it belongs to.
func Module(name string) slog.Attr {
	return slog.Attr{
		Key:   "module",
		Value: slog.StringValue(name),
	}
}

// Secret logs a credential in a redacted form: enough to correlate,
// not enough to reuse.
func Secret(key, value string) slog.Attr {
	masked := "empty"
	if len(value) > 8 {
		masked = value[:4] + "..." + value[len(value)-4:]
	} else if len(value) > 0 {
		masked = "***"
	}
	return slog.Attr{
		Key:   key,
		Value: slog.StringValue(masked),
	}
}
