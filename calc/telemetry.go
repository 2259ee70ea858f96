package calc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/midbel/log"
)

// Report describes one recalculation.
type Report struct {
	Result
	Workbook string
	When     time.Time
	Dirty    int
	Elapsed  time.Duration
}

type Telemetry interface {
	Record(Report)
}

type TelemetryFunc func(Report)

func (f TelemetryFunc) Record(r Report) {
	f(r)
}

type logTelemetry struct {
	logger *slog.Logger
}

// LogTelemetry writes every report to logger. Reports with a cycle that did
// not converge are logged as warnings.
func LogTelemetry(logger *slog.Logger) Telemetry {
	return logTelemetry{
		logger: logger,
	}
}

func (t logTelemetry) Record(r Report) {
	level := slog.LevelInfo
	if r.HasCycle && !r.Converged {
		level = slog.LevelWarn
	}
	t.logger.LogAttrs(context.Background(), level, "recalculation",
		slog.Int("dirty", r.Dirty),
		slog.Int("evaluated", r.Evaluated),
		slog.Bool("cycle", r.HasCycle),
		slog.Int("iterations", r.Iterations),
		slog.Bool("converged", r.Converged),
		slog.Int("spills", r.Spills),
		slog.Int("spill_errors", r.SpillErrors),
		slog.Duration("elapsed", r.Elapsed),
	)
}

type writerTelemetry struct {
	writer log.Writer
}

// WriterTelemetry prints one line per report with w. The fields given to w
// are the time (t), the level (l), the workbook (n) and a message (m)
// summarizing the report.
func WriterTelemetry(w log.Writer) Telemetry {
	return writerTelemetry{
		writer: w,
	}
}

func (t writerTelemetry) Record(r Report) {
	level := "INFO"
	if r.HasCycle && !r.Converged {
		level = "WARN"
	}
	name := r.Workbook
	if name == "" {
		name = "workbook"
	}
	msg := fmt.Sprintf("dirty=%d evaluated=%d cycle=%t iterations=%d converged=%t spills=%d spill_errors=%d elapsed=%s",
		r.Dirty,
		r.Evaluated,
		r.HasCycle,
		r.Iterations,
		r.Converged,
		r.Spills,
		r.SpillErrors,
		r.Elapsed,
	)
	fields := []log.LogField{
		{Name: "t", Value: r.When.Format(time.RFC3339)},
		{Name: "l", Value: level},
		{Name: "n", Value: name},
		{Name: "m", Value: msg},
	}
	t.writer.Write(fields)
}
