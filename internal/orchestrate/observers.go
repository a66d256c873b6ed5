package orchestrate

import (
	"log"
	"strings"

	"github.com/go-logr/logr"
)

// ConsoleObserver returns a Notify that renders events as plain log lines.
// It serves non-TTY runs and --plain mode, where the dashboard is not drawn.
func ConsoleObserver() Notify {
	return func(ev Event) {
		var b strings.Builder
		b.WriteString(string(ev.Type))
		if ev.Phase != "" {
			b.WriteString(" ")
			b.WriteString(ev.Phase)
		}
		if ev.Subject != "" {
			b.WriteString(" ")
			b.WriteString(ev.Subject)
		}
		if ev.Message != "" {
			b.WriteString(": ")
			b.WriteString(ev.Message)
		}
		if ev.Err != nil {
			b.WriteString(" (")
			b.WriteString(ev.Err.Error())
			b.WriteString(")")
		}
		log.Print(b.String())
	}
}

// LogrObserver returns a Notify that bridges events into a structured
// logger. The daemon wires it so convergence repairs and failures surface
// in its zap output; the engine itself only logs pass summaries.
func LogrObserver(logger logr.Logger) Notify {
	return func(ev Event) {
		fields := make([]any, 0, 6)
		if ev.Phase != "" {
			fields = append(fields, "phase", ev.Phase)
		}
		if ev.Subject != "" {
			fields = append(fields, "subject", ev.Subject)
		}
		if ev.Message != "" {
			fields = append(fields, "detail", ev.Message)
		}
		if ev.Err != nil {
			logger.Error(ev.Err, string(ev.Type), fields...)
			return
		}
		logger.Info(string(ev.Type), fields...)
	}
}
