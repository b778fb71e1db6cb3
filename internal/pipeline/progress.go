package pipeline

import (
	"log/slog"
	"sync/atomic"
	"time"

	"gdcmeta/internal/logging"
)

// Summary reports the outcome of one workflow.
type Summary struct {
	Workflow  string        `json:"workflow"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type progress struct {
	workflow string
	total    int
	every    int
	logger   *slog.Logger
	started  time.Time

	done      atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

func newProgress(workflow string, total, every int, logger *slog.Logger) *progress {
	return &progress{workflow: workflow, total: total, every: every, logger: logger, started: time.Now()}
}

func (p *progress) record(ok bool) {
	if ok {
		p.succeeded.Add(1)
	} else {
		p.failed.Add(1)
	}
	n := p.done.Add(1)
	if p.every > 0 && n%int64(p.every) == 0 {
		p.logger.Info("progress",
			logging.String(logging.FieldEventType, "progress"),
			logging.Int64("completed", n),
			logging.Int("total", p.total),
			logging.Int64("failed", p.failed.Load()),
		)
	}
}

func (p *progress) summary() Summary {
	return Summary{
		Workflow:  p.workflow,
		Total:     p.total,
		Succeeded: int(p.succeeded.Load()),
		Failed:    int(p.failed.Load()),
		Duration:  time.Since(p.started),
	}
}

func (p *progress) finish(s Summary) Summary {
	p.logger.Info("workflow complete",
		logging.String(logging.FieldEventType, "workflow_complete"),
		logging.Int("total", s.Total),
		logging.Int("succeeded", s.Succeeded),
		logging.Int("failed", s.Failed),
		logging.Int("skipped", s.Skipped),
		logging.Duration("duration", s.Duration),
	)
	return s
}
