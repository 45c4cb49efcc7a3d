package citydb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/importer"
	"github.com/mesh-intelligence/citydb/internal/jsonl"
	"github.com/mesh-intelligence/citydb/internal/pipeline"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ImportOptions configures Import.
type ImportOptions struct {
	// Threads sizes both pipeline stages. Zero uses the number of CPUs.
	Threads int
	// FailFast stops at the first feature that cannot be decoded or
	// imported. Otherwise such features are counted and skipped.
	FailFast   bool
	Registerer prometheus.Registerer
}

// ImportSummary reports the outcome of Import.
type ImportSummary struct {
	Files int
	// Imported and Failed count top-level features, one per input line.
	Imported int64
	Failed   int64
	// Features includes contained sub-features.
	Features   int64
	Properties int64
	Resolved   int
	Unresolved int
	Duration   time.Duration
}

// line is one input line tagged with its file.
type line struct {
	file string
	jsonl.Line
}

type lineSource struct {
	r *jsonl.Reader
}

func (s lineSource) Next(ctx context.Context) (line, error) {
	l, err := s.r.Next(ctx)
	return line{file: s.r.Name(), Line: l}, err
}

// Import reads the JSON Lines files in order and writes every feature into
// db. References between features are resolved once all files are read,
// so they may point forward and across files.
func Import(ctx context.Context, db *Database, files []string, opts ImportOptions, log *logrus.Entry) (ImportSummary, error) {
	start := time.Now()
	log = entry(log)
	summary := ImportSummary{}

	im, err := importer.New(ctx, db, log)
	if err != nil {
		return summary, err
	}
	n := threads(opts.Threads)
	workers := make(chan *importer.Worker, n)
	for i := 0; i < n; i++ {
		w, err := im.NewWorker(ctx)
		if err != nil {
			close(workers)
			closeWorkers(workers)
			return summary, err
		}
		workers <- w
	}

	convert := func(_ context.Context, l line) (*types.Feature, error) {
		f, err := jsonl.Unmarshal(l.Data)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", l.file, l.Number, err)
		}
		return f, nil
	}
	persist := func(ctx context.Context, f *types.Feature) error {
		w := <-workers
		defer func() { workers <- w }()
		return w.Import(ctx, f)
	}
	p := pipeline.New[line, *types.Feature](convert, persist, pipeline.Options{
		Name:           "import",
		ConvertWorkers: n,
		PersistWorkers: n,
		FailFast:       opts.FailFast,
		Registerer:     opts.Registerer,
		Log:            log,
	})

	var runErr error
	for _, path := range files {
		if p.Stopped() {
			break
		}
		r, err := jsonl.Open(path)
		if err != nil {
			runErr = err
			p.Cancel()
			break
		}
		summary.Files++
		log.WithField("file", path).Info("importing")
		err = p.Run(ctx, lineSource{r: r})
		r.Close()
		if err != nil {
			runErr = err
			break
		}
	}

	closeErr := p.Close()
	summary.Imported, summary.Failed = p.Counts()
	close(workers)
	flushErr := flushWorkers(ctx, workers)
	if err := errors.Join(runErr, p.Err(), closeErr, flushErr); err != nil {
		summary.Duration = time.Since(start)
		return summary, err
	}

	result, err := im.Finish(ctx)
	summary.Features = result.Features
	summary.Properties = result.Properties
	summary.Resolved = result.Resolved
	summary.Unresolved = result.Unresolved
	summary.Duration = time.Since(start)
	if err != nil {
		return summary, err
	}
	log.WithFields(logrus.Fields{
		"imported": summary.Imported,
		"failed":   summary.Failed,
		"elapsed":  summary.Duration.Round(time.Millisecond),
	}).Info("import complete")
	return summary, nil
}

// flushWorkers flushes and closes every worker. Flushing stops at the first
// error; the remaining workers are still closed.
func flushWorkers(ctx context.Context, workers <-chan *importer.Worker) error {
	var errs []error
	failed := false
	for w := range workers {
		if !failed {
			if err := w.Flush(ctx); err != nil {
				errs = append(errs, err)
				failed = true
			}
		}
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

func closeWorkers(workers <-chan *importer.Worker) {
	for w := range workers {
		w.Close()
	}
}
