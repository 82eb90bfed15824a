package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/Lava-10/knowMoreQR/internal/catalog"
	"github.com/Lava-10/knowMoreQR/internal/domain"
)

// defaultPageSize is the number of hits fetched per search request. Larger
// result sets are paged with search_after until exhausted.
const defaultPageSize = 500

// Lookup is an Elasticsearch-backed catalog.Lookup and catalog indexer.
type Lookup struct {
	client    *elasticsearch.Client
	indexName string
	pageSize  int
	logger    *slog.Logger
}

var _ catalog.Lookup = (*Lookup)(nil)

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source domain.CatalogEntry `json:"_source"`
			Sort   []any               `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New connects to the cluster at esURL. An empty indexName selects
// DefaultIndexName.
func New(esURL, indexName string, logger *slog.Logger) (*Lookup, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return NewWithClient(client, indexName, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *elasticsearch.Client, indexName string, logger *slog.Logger) *Lookup {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	return &Lookup{client: client, indexName: indexName, pageSize: defaultPageSize, logger: logger}
}

// Ping checks whether the cluster is reachable.
func (l *Lookup) Ping(ctx context.Context) error {
	res, err := l.client.Ping(l.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (l *Lookup) EnsureIndex(ctx context.Context) error {
	res, err := l.client.Indices.Exists([]string{l.indexName}, l.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = l.client.Indices.Create(
		l.indexName,
		l.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		l.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseError("create index", res)
	}

	l.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", l.indexName))
	return nil
}

// FindByText runs a case-insensitive substring match on name or series and
// returns every hit in catalog order (createdAt, id).
func (l *Lookup) FindByText(ctx context.Context, query string) ([]domain.CatalogEntry, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.CatalogEntry{}, nil
	}

	entries := []domain.CatalogEntry{}
	var after []any
	for {
		sr, err := l.searchPage(ctx, buildTextQuery(q, l.pageSize, after))
		if err != nil {
			return nil, err
		}
		hits := sr.Hits.Hits
		for _, hit := range hits {
			entries = append(entries, hit.Source)
		}
		if len(hits) < l.pageSize || len(hits[len(hits)-1].Sort) == 0 {
			return entries, nil
		}
		after = hits[len(hits)-1].Sort
	}
}

func (l *Lookup) searchPage(ctx context.Context, query map[string]any) (*searchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch lookup: marshal query: %w", err)
	}

	res, err := l.client.Search(
		l.client.Search.WithIndex(l.indexName),
		l.client.Search.WithBody(bytes.NewReader(body)),
		l.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch lookup: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, responseError("elasticsearch lookup", res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("elasticsearch lookup: decode response: %w", err)
	}
	return &sr, nil
}

func buildTextQuery(lowered string, size int, after []any) map[string]any {
	pattern := "*" + escapeWildcard(lowered) + "*"
	query := map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"wildcard": map[string]any{"name.lower": map[string]any{"value": pattern}}},
					map[string]any{"wildcard": map[string]any{"series.lower": map[string]any{"value": pattern}}},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []any{
			map[string]any{"createdAt": "asc"},
			map[string]any{"id": "asc"},
		},
	}
	if len(after) > 0 {
		query["search_after"] = after
	}
	return query
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

// Index adds or replaces a single entry.
func (l *Lookup) Index(ctx context.Context, entry *domain.CatalogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal entry: %w", err)
	}

	res, err := l.client.Index(
		l.indexName,
		bytes.NewReader(data),
		l.client.Index.WithDocumentID(entry.ID),
		l.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch index", res)
	}
	l.logger.DebugContext(ctx, "indexed tag", slog.String("tag_id", entry.ID))
	return nil
}

// Delete removes an entry. A missing document is not an error.
func (l *Lookup) Delete(ctx context.Context, id string) error {
	res, err := l.client.Delete(l.indexName, id, l.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("elasticsearch delete", res)
	}
	return nil
}

// BulkIndex indexes entries in one NDJSON bulk request.
func (l *Lookup) BulkIndex(ctx context.Context, entries []domain.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range entries {
		action := map[string]any{"index": map[string]any{"_index": l.indexName, "_id": entries[i].ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(entries[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := l.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		l.client.Bulk.WithIndex(l.indexName),
		l.client.Bulk.WithRefresh("true"),
		l.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return responseError("elasticsearch bulk index", res)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if br.Errors {
		var msgs []string
		for _, item := range br.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, er.Error.Type, er.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}
