package citydb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/citydb/internal/database"
	"github.com/mesh-intelligence/citydb/internal/exporter"
	"github.com/mesh-intelligence/citydb/internal/jsonl"
	"github.com/mesh-intelligence/citydb/internal/pipeline"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// ErrUnknownObjectClass is returned when an export filter names a class
// that the database does not know.
var ErrUnknownObjectClass = errors.New("unknown object class")

// ExportOptions configures Export.
type ExportOptions struct {
	// Threads sizes the export stage. Features are written by a single
	// writer. Zero uses the number of CPUs.
	Threads int
	// Types keeps only root features of these classes. Empty keeps all.
	Types []types.Name
	// Limit caps the number of exported root features. Zero means no limit.
	Limit int
	// FailFast stops at the first feature that cannot be exported.
	FailFast bool
	// ScratchDir holds the template spill store. Empty uses the system
	// temporary directory.
	ScratchDir        string
	TemplateCacheSize int
	Registerer        prometheus.Registerer
}

// ExportSummary reports the outcome of Export.
type ExportSummary struct {
	Exported int64
	Failed   int64
	Duration time.Duration
}

// rowSource yields the ids of a feature query.
type rowSource struct {
	rows *database.QueryResult
}

func (s rowSource) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.rows.Next() {
		return s.rows.Row().ID, nil
	}
	if err := s.rows.Err(); err != nil {
		return 0, err
	}
	return 0, io.EOF
}

// Export writes every root feature of db to path as JSON Lines, one
// feature graph per line. The file appears atomically once the export has
// succeeded; on failure nothing is written. Line order is not guaranteed.
func Export(ctx context.Context, db *Database, path string, opts ExportOptions, log *logrus.Entry) (ExportSummary, error) {
	start := time.Now()
	log = entry(log)
	summary := ExportSummary{}

	classIDs, err := classFilter(db, opts.Types)
	if err != nil {
		return summary, err
	}
	ex, err := exporter.New(db, exporter.Options{
		TemplateCacheSize: opts.TemplateCacheSize,
		ScratchDir:        opts.ScratchDir,
	}, log)
	if err != nil {
		return summary, err
	}
	w, err := jsonl.Create(path)
	if err != nil {
		ex.Close()
		return summary, err
	}
	rows, err := db.QueryFeatures(ctx, database.QueryOptions{
		ObjectClassIDs: classIDs,
		RootsOnly:      true,
		Limit:          opts.Limit,
	})
	if err != nil {
		ex.Close()
		w.Abort()
		return summary, err
	}

	persist := func(_ context.Context, f *types.Feature) error {
		if err := w.Write(f); err != nil {
			return fmt.Errorf("%w: writing %s: %v", types.ErrPersistence, f.ObjectID, err)
		}
		return nil
	}
	n := threads(opts.Threads)
	p := pipeline.New[int64, *types.Feature](ex.Export, persist, pipeline.Options{
		Name:           "export",
		ConvertWorkers: n,
		PersistWorkers: 1,
		FailFast:       opts.FailFast,
		Registerer:     opts.Registerer,
		Log:            log,
	})
	p.AddCloser(ex)
	p.AddCloser(rows)

	log.WithField("file", path).Info("exporting")
	runErr := p.Run(ctx, rowSource{rows: rows})
	closeErr := p.Close()
	summary.Exported, summary.Failed = p.Counts()
	summary.Duration = time.Since(start)

	if err := errors.Join(runErr, p.Err(), closeErr); err != nil {
		w.Abort()
		return summary, err
	}
	if err := w.Close(); err != nil {
		return summary, err
	}
	log.WithFields(logrus.Fields{
		"exported": summary.Exported,
		"failed":   summary.Failed,
		"elapsed":  summary.Duration.Round(time.Millisecond),
	}).Info("export complete")
	return summary, nil
}

func classFilter(db *Database, names []types.Name) ([]int, error) {
	classes := db.ObjectClasses()
	var ids []int
	for _, name := range names {
		oc, ok := classes.ByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObjectClass, name)
		}
		ids = append(ids, oc.ID)
	}
	return ids, nil
}
