package telemetry

import (
	"log/slog"
	"os"
	"strconv"
)

// InitSlog points the default logger at stderr. Debug records, including
// ReportDebug and the resty dumps, only show up with verbose.
func InitSlog(verbose bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// SlogAPI writes reports as log records. A nil Logger means slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// reportAttrs numbers the params as arg0, arg1... and flattens errors to
// their message.
func reportAttrs(id string, params []any) []any {
	attrs := make([]any, 0, len(params)+1)
	if id != "" {
		attrs = append(attrs, slog.String("report", id))
	}
	for i, p := range params {
		key := "arg" + strconv.Itoa(i)
		if err, ok := p.(error); ok {
			attrs = append(attrs, slog.String(key, err.Error()))
			continue
		}
		attrs = append(attrs, slog.Any(key, p))
	}
	return attrs
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.logger().Error("component broken", reportAttrs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.logger().Warn("component warning", reportAttrs(id, params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.logger().Debug(message, reportAttrs("", params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().Info("count", slog.String("report", id), slog.Int64("n", count))
}
