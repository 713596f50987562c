package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/BitForged/Compass/internal/ports"
)

const (
	proxyPrefix  = "3papi/civitai/api-proxy/"
	DefaultLimit = 25
)

// SearchQuery selects models from the catalog proxy.
type SearchQuery struct {
	Query string
	Type  domain.ModelType
	NSFW  bool
	Limit int
	ByTag bool
}

// Client forwards GET requests to the model catalog through the backend proxy.
type Client struct {
	requester ports.Requester
}

func New(requester ports.Requester) *Client {
	return &Client{requester: requester}
}

// Forward issues GET <proxy>/<endpoint>?<query>. An empty query sends no
// query string.
func (c *Client) Forward(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	target := proxyPrefix + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.requester.Request(ctx, ports.Request{Endpoint: target})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}

// SearchModels searches the catalog. A purely numeric query is looked up as a
// model id instead.
func (c *Client) SearchModels(ctx context.Context, q SearchQuery) (json.RawMessage, error) {
	endpoint, query := SearchRequest(q)
	return c.Forward(ctx, endpoint, query)
}

func (c *Client) Model(ctx context.Context, id uint64) (json.RawMessage, error) {
	return c.Forward(ctx, "models/"+strconv.FormatUint(id, 10), nil)
}

// SearchRequest maps a search onto the proxy endpoint and query parameters.
func SearchRequest(q SearchQuery) (string, url.Values) {
	if id, ok := numericID(q.Query); ok {
		return "models/" + strconv.FormatUint(id, 10), nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := url.Values{}
	if q.ByTag {
		query.Set("tag", q.Query)
	} else {
		query.Set("query", q.Query)
	}
	if q.Type.APIValue != "" {
		query.Set("types", q.Type.APIValue)
	}
	query.Set("nsfw", strconv.FormatBool(q.NSFW))
	query.Set("limit", strconv.Itoa(limit))

	return "models", query
}

func numericID(query string) (uint64, bool) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
