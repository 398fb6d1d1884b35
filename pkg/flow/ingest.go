package flow

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weavebio/uniprot-ingest/pkg/graph"
	"github.com/weavebio/uniprot-ingest/pkg/graph/storage"
)

// IngestOptions configures one run of the ingest flow.
type IngestOptions struct {
	// DataDir is scanned for *.xml files.
	DataDir string
	// Mapping drives the XML-to-graph translation.
	Mapping *graph.Mapping
	// Loader receives extracted fragments. Leave nil in dump mode.
	Loader storage.Loader
	// DumpDir, when set, writes each fragment as JSON there instead of
	// loading it into the database.
	DumpDir string
	// LoadRetries and LoadRetryDelay shape the retry policy around the
	// load task. Extraction is deterministic and never retried.
	LoadRetries    int
	LoadRetryDelay time.Duration

	Logger *logrus.Logger
}

// RunIngest is the single ingest entry point: it locates the XML files,
// and for each one runs an extract task followed by a load (or dump)
// task. The first task failure stops the flow and is returned.
func RunIngest(ctx context.Context, opts IngestOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	files, err := filepath.Glob(filepath.Join(opts.DataDir, "*.xml"))
	if err != nil {
		return errors.Wrap(err, "scanning data directory")
	}
	if len(files) == 0 {
		logger.WithField("data_dir", opts.DataDir).Warn("No XML files to ingest")
		return nil
	}

	f := New("ingest_uniprot")
	f.SetLogger(logger)

	for _, file := range files {
		file := file
		var fragment *graph.Fragment

		f.Add(Task{
			Name: "extract_from_xml",
			Run: func(ctx context.Context) error {
				var err error
				fragment, err = graph.ExtractFile(file, opts.Mapping)
				if err != nil {
					return err
				}
				logger.WithFields(logrus.Fields{
					"file":          file,
					"nodes":         len(fragment.Nodes),
					"relationships": len(fragment.Relationships),
				}).Info("Fragment extracted")
				return nil
			},
		})

		if opts.DumpDir != "" {
			f.Add(Task{
				Name: "dump_fragment",
				Run: func(ctx context.Context) error {
					store := storage.NewJSONFragmentStore(dumpPath(opts.DumpDir, file))
					return store.StoreFragment(ctx, fragment)
				},
			})
			continue
		}

		f.Add(Task{
			Name:       "load_into_neo4j",
			Retries:    opts.LoadRetries,
			RetryDelay: opts.LoadRetryDelay,
			Run: func(ctx context.Context) error {
				stats, err := opts.Loader.LoadFragment(ctx, fragment)
				if stats != nil {
					logger.WithFields(logrus.Fields{
						"file":          file,
						"nodes":         stats.NodesMerged,
						"relationships": stats.RelationshipsMerged,
						"failed":        stats.Failed,
					}).Info("Fragment loaded")
				}
				return err
			},
		})
	}

	return f.Run(ctx)
}

func dumpPath(dumpDir, xmlFile string) string {
	base := strings.TrimSuffix(filepath.Base(xmlFile), filepath.Ext(xmlFile))
	return filepath.Join(dumpDir, base+".json")
}
