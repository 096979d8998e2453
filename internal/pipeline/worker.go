package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/deckgest/internal/source"
)

// Worker processes deck jobs with a shared Builder.
type Worker struct {
	builder *Builder
	log     *slog.Logger
}

func NewWorker(b *Builder, log *slog.Logger) *Worker {
	return &Worker{builder: b, log: log}
}

// Process runs a job to a terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	req := job.Request()
	log := w.log.With("job_id", job.ID, "topic", req.Topic, "source", req.Source)

	out, err := w.builder.Run(ctx, req, func(s JobStatus) {
		job.SetStatus(s, string(s))
	})

	status := StatusFor(err)
	switch status {
	case StatusCompleted:
		job.Complete(out.Result.Title, out.Deck, out.File)
		log.Info("job completed", "slides", len(out.Deck.Slides), "file", out.File)
		return
	case StatusNotFound, StatusAmbiguous:
		var le *source.LookupError
		if errors.As(err, &le) {
			if status == StatusNotFound {
				job.SetAlternatives(le.Alternatives, nil)
			} else {
				job.SetAlternatives(nil, le.Alternatives)
			}
		}
		log.Info("lookup unresolved", "status", status)
	default:
		log.Error("job failed", "error", err)
	}

	job.Fail(status, err.Error())
}
