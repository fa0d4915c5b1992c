package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
)

const (
	queryDataPath     = "/query/data"
	queryPath         = "/query"
	defaultRAGTimeout = 120 * time.Second
)

// LightRAGClient は LightRAG サーバーの HTTP API を呼び出す Backend 実装です。
type LightRAGClient struct {
	baseURL string
	apiKey  string
	client  httpkit.Doer
}

// NewLightRAGClient は baseURL に対するクライアントを作成します。
// LightRAG は通常 localhost や社内ネットワークで動くため、httpkit のネットワーク検証は無効にします。
// timeout が 0 以下の場合は既定のタイムアウトを使います。
func NewLightRAGClient(baseURL, apiKey string, timeout time.Duration, opts ...httpkit.ClientOption) (*LightRAGClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("lightrag base URL is required")
	}
	if timeout <= 0 {
		timeout = defaultRAGTimeout
	}
	clientOpts := append([]httpkit.ClientOption{httpkit.WithSkipNetworkValidation(true)}, opts...)
	return &LightRAGClient{
		baseURL: base,
		apiKey:  strings.TrimSpace(apiKey),
		client:  httpkit.New(timeout, clientOpts...),
	}, nil
}

type queryRequest struct {
	Query string `json:"query"`
	Options
}

type minimalQueryRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
}

// Query は /query/data を呼び出します。
// サーバーがオプションを受け付けない場合 (422) は query と mode だけで再試行し、
// エンドポイントが存在しない場合 (404) は /query の only_need_context 応答を raw_context として返します。
func (c *LightRAGClient) Query(ctx context.Context, topic string, opts Options) (Result, error) {
	body, err := c.post(ctx, queryDataPath, queryRequest{Query: topic, Options: opts})
	switch statusOf(err) {
	case http.StatusUnprocessableEntity:
		slog.WarnContext(ctx, "LightRAG rejected query options, retrying with minimal payload")
		body, err = c.post(ctx, queryDataPath, minimalQueryRequest{Query: topic, Mode: opts.Mode})
	case http.StatusNotFound:
		slog.WarnContext(ctx, "LightRAG /query/data not available, falling back to /query")
		return c.queryContext(ctx, topic, opts)
	}
	if err != nil {
		return nil, err
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid LightRAG response from %s: %w", queryDataPath, err)
	}
	return result, nil
}

func (c *LightRAGClient) queryContext(ctx context.Context, topic string, opts Options) (Result, error) {
	opts.ContextOnly = true
	body, err := c.post(ctx, queryPath, queryRequest{Query: topic, Options: opts})
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("invalid LightRAG response from %s: %w", queryPath, err)
	}
	return map[string]any{"raw_context": decoded.Response}, nil
}

// post は payload を JSON で送信し、2xx の応答ボディを返します。
// 4xx は *httpkit.NonRetryableHTTPError として返るため、呼び出し側はステータスで分岐できます。
func (c *LightRAGClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode LightRAG request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LightRAG request to %s failed: %w", path, err)
	}
	body, err := httpkit.HandleResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("LightRAG %s failed: %w", path, err)
	}
	return body, nil
}

// statusOf は err が 4xx 応答の場合にそのステータスコードを返します。それ以外は 0 です。
func statusOf(err error) int {
	var httpErr *httpkit.NonRetryableHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
