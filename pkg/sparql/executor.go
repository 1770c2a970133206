package sparql

import (
	"fmt"
	"time"

	"github.com/knakk/sparql"
	"go.uber.org/zap"
)

// QueryExecutor runs a SELECT query and returns one map per solution,
// keyed by variable name.
type QueryExecutor interface {
	Select(query string) ([]map[string]string, error)
}

// EndpointClient executes queries against a remote SPARQL endpoint.
type EndpointClient struct {
	repo   *sparql.Repo
	logger *zap.Logger
}

// NewEndpointClient connects to the endpoint URL.
func NewEndpointClient(endpoint string, timeout time.Duration, logger *zap.Logger) (*EndpointClient, error) {
	repo, err := sparql.NewRepo(endpoint, sparql.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("sparql endpoint %s: %w", endpoint, err)
	}
	return &EndpointClient{repo: repo, logger: logger}, nil
}

// Select runs the query and flattens the solutions to string values.
func (c *EndpointClient) Select(query string) ([]map[string]string, error) {
	start := time.Now()
	res, err := c.repo.Query(query)
	if err != nil {
		return nil, fmt.Errorf("sparql query failed: %w", err)
	}

	solutions := res.Solutions()
	rows := make([]map[string]string, 0, len(solutions))
	for _, sol := range solutions {
		row := make(map[string]string, len(sol))
		for name, term := range sol {
			row[name] = term.String()
		}
		rows = append(rows, row)
	}

	c.logger.Debug("sparql select executed",
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return rows, nil
}
