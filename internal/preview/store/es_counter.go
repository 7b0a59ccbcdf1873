package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

// ESSignalCounter counts engagement signals indexed in Elasticsearch.
// It is selected with preview.engagementSource=elasticsearch when signal
// events are shipped to the search cluster instead of the card database.
type ESSignalCounter struct {
	client *elasticsearch.Client
	index  string
}

func NewESSignalCounter(client *elasticsearch.Client, index string) *ESSignalCounter {
	return &ESSignalCounter{client: client, index: index}
}

type countResponse struct {
	Count int64 `json:"count"`
}

// EngagementCount issues a _count request filtered on card_id. A missing
// index counts as zero signals.
func (c *ESSignalCounter) EngagementCount(ctx context.Context, cardID string) (int64, error) {
	query, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"card_id": cardID},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	res, err := c.client.Count(
		c.client.Count.WithContext(ctx),
		c.client.Count.WithIndex(c.index),
		c.client.Count.WithBody(strings.NewReader(string(query))),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch count error: %s", res.Status())
	}

	var out countResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return out.Count, nil
}
