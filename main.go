package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/weavebio/uniprot-ingest/pkg/flow"
	"github.com/weavebio/uniprot-ingest/pkg/graph"
	"github.com/weavebio/uniprot-ingest/pkg/graph/storage"
	"github.com/weavebio/uniprot-ingest/pkg/uniprot"
)

var (
	envFile     = flag.String("env", ".env", "Path to environment file")
	dataDir     = flag.String("data", "", "Directory containing the XML files to ingest (defaults to $DATA_DIR or ./data)")
	mappingFile = flag.String("mapping", "", "Path to a JSON mapping file (defaults to the built-in UniProt mapping)")
	dumpDir     = flag.String("dump", "", "Write extracted fragments as JSON to this directory instead of loading them")
	logLevel    = flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	metricsAddr = flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (disabled when empty)")
	loadRetries = flag.Int("load-retries", 2, "Retries for the database load task")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(*envFile); err != nil {
		logger.Warnf("Error loading env file %s: %v", *envFile, err)
	}

	dir := *dataDir
	if dir == "" {
		dir = os.Getenv("DATA_DIR")
	}
	if dir == "" {
		dir = "./data"
	}

	mapping := uniprot.DefaultMapping()
	if *mappingFile != "" {
		mapping, err = graph.LoadMapping(*mappingFile)
		if err != nil {
			logger.Fatalf("Invalid mapping file: %v", err)
		}
	}

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	ctx := context.Background()
	opts := flow.IngestOptions{
		DataDir:        dir,
		Mapping:        mapping,
		DumpDir:        *dumpDir,
		LoadRetries:    *loadRetries,
		LoadRetryDelay: 2 * time.Second,
		Logger:         logger,
	}

	if *dumpDir == "" {
		loader, err := newLoaderFromEnv()
		if err != nil {
			logger.Fatalf("Cannot create Neo4j loader: %v", err)
		}
		if err := loader.Connect(ctx); err != nil {
			logger.Fatalf("Cannot connect to Neo4j: %v", err)
		}
		defer loader.Close()
		opts.Loader = loader
	}

	if err := flow.RunIngest(ctx, opts); err != nil {
		logger.WithError(err).Error("Ingest failed")
		os.Exit(1)
	}
}

func newLoaderFromEnv() (*storage.Neo4jLoader, error) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	return storage.NewNeo4jLoader(uri, os.Getenv("NEO4J_USERNAME"), os.Getenv("NEO4J_PASSWORD"))
}
