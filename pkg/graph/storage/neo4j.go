package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/weavebio/uniprot-ingest/pkg/graph"
	"github.com/weavebio/uniprot-ingest/pkg/graph/metrics"
)

// LoadStats summarizes one fragment load.
type LoadStats struct {
	NodesMerged         int
	RelationshipsMerged int
	Failed              int
}

// Loader writes graph fragments to a backing store with merge semantics:
// re-loading the same fragment must not duplicate nodes or relationships.
type Loader interface {
	Connect(ctx context.Context) error
	Close() error
	LoadFragment(ctx context.Context, fragment *graph.Fragment) (*LoadStats, error)
}

// Neo4jLoader implements Loader against a Neo4j server.
//
// Nodes merge on their label plus full property set (the natural key);
// relationships merge on their type plus both endpoint natural keys. Each
// operation runs in its own write transaction: a failed write is recorded
// and loading continues, so one bad record cannot sink a whole fragment.
type Neo4jLoader struct {
	driver  neo4j.Driver
	uri     string
	session neo4j.Session
	logger  *logrus.Logger
}

// NewNeo4jLoader creates a loader for the given connection URI and
// credentials. No connection is attempted until Connect.
func NewNeo4jLoader(uri, username, password string) (*Neo4jLoader, error) {
	driver, err := neo4j.NewDriver(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Neo4jLoader{
		driver: driver,
		uri:    uri,
		logger: logger,
	}, nil
}

// Connect opens the session used for the lifetime of this loader.
func (l *Neo4jLoader) Connect(ctx context.Context) error {
	l.session = l.driver.NewSession(neo4j.SessionConfig{})
	return nil
}

// Close releases the session and the driver.
func (l *Neo4jLoader) Close() error {
	if l.session != nil {
		l.session.Close()
	}
	if l.driver != nil {
		return l.driver.Close()
	}
	return nil
}

// LoadFragment merges every node and relationship of the fragment into the
// database. Individual write failures are reported per operation in the
// returned error; the stats count what succeeded.
func (l *Neo4jLoader) LoadFragment(ctx context.Context, fragment *graph.Fragment) (*LoadStats, error) {
	stats := &LoadStats{}
	var failures []error

	timer := prometheus.NewTimer(metrics.LoadDuration.WithLabelValues("fragment"))
	defer timer.ObserveDuration()

	for i := range fragment.Nodes {
		node := &fragment.Nodes[i]
		cypher, params, err := mergeNodeQuery(node)
		if err == nil {
			err = l.write(cypher, params)
		}
		if err != nil {
			stats.Failed++
			metrics.LoadOperations.WithLabelValues("merge_node", "error").Inc()
			failures = append(failures, &graph.LoadError{Op: "merge node", Label: node.Label, Err: err})
			continue
		}
		stats.NodesMerged++
		metrics.LoadOperations.WithLabelValues("merge_node", "success").Inc()
	}

	for _, rel := range fragment.Relationships {
		cypher, params, err := mergeRelationshipQuery(fragment, rel)
		if err == nil {
			err = l.write(cypher, params)
		}
		if err != nil {
			stats.Failed++
			metrics.LoadOperations.WithLabelValues("merge_relationship", "error").Inc()
			failures = append(failures, &graph.LoadError{Op: "merge relationship", Label: rel.Type, Err: err})
			continue
		}
		stats.RelationshipsMerged++
		metrics.LoadOperations.WithLabelValues("merge_relationship", "success").Inc()
	}

	if len(failures) > 0 {
		l.logger.WithFields(logrus.Fields{
			"source": fragment.Source,
			"failed": stats.Failed,
		}).Error("Fragment load finished with failures")
		return stats, errors.Join(failures...)
	}
	return stats, nil
}

func (l *Neo4jLoader) write(cypher string, params map[string]interface{}) error {
	_, err := l.session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		return tx.Run(cypher, params)
	})
	return err
}

var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteLabel validates and backtick-quotes a label or relationship type.
// Labels cannot be query parameters in Cypher, so they are interpolated
// and must be restricted to identifier characters.
func quoteLabel(label string) (string, error) {
	if !labelPattern.MatchString(label) {
		return "", fmt.Errorf("invalid label or relationship type %q", label)
	}
	return "`" + label + "`", nil
}

// propertyMatch renders a Cypher property map `{k: $prefix_k, ...}` over
// the node's full property set, with keys in sorted order so query text is
// deterministic.
func propertyMatch(n *graph.NodeRecord, prefix string, params map[string]interface{}) string {
	if len(n.Properties) == 0 {
		return ""
	}
	keys := make([]string, 0, len(n.Properties))
	for k := range n.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(" {")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		param := fmt.Sprintf("%s_%d", prefix, i)
		fmt.Fprintf(&b, "`%s`: $%s", strings.ReplaceAll(k, "`", ""), param)
		params[param] = n.Properties[k]
	}
	b.WriteString("}")
	return b.String()
}

// mergeNodeQuery builds the MERGE statement for one node record.
func mergeNodeQuery(n *graph.NodeRecord) (string, map[string]interface{}, error) {
	label, err := quoteLabel(n.Label)
	if err != nil {
		return "", nil, err
	}
	params := make(map[string]interface{})
	return fmt.Sprintf("MERGE (n:%s%s)", label, propertyMatch(n, "p", params)), params, nil
}

// mergeRelationshipQuery builds the MATCH/MERGE statement for one
// relationship record, matching both endpoints by their natural keys.
func mergeRelationshipQuery(f *graph.Fragment, r graph.RelationshipRecord) (string, map[string]interface{}, error) {
	parent := f.Node(r.Parent)
	child := f.Node(r.Child)

	relType, err := quoteLabel(r.Type)
	if err != nil {
		return "", nil, err
	}
	parentLabel, err := quoteLabel(parent.Label)
	if err != nil {
		return "", nil, err
	}
	childLabel, err := quoteLabel(child.Label)
	if err != nil {
		return "", nil, err
	}

	params := make(map[string]interface{})
	cypher := fmt.Sprintf(
		"MATCH (a:%s%s)\nMATCH (b:%s%s)\nMERGE (a)-[r:%s]->(b)",
		parentLabel, propertyMatch(parent, "a", params),
		childLabel, propertyMatch(child, "b", params),
		relType,
	)
	return cypher, params, nil
}
