package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightRAGClient_Query(t *testing.T) {
	t.Run("オプションとAPIキーを送信し応答をそのまま返すこと", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query/data", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"data":{"chunks":[{"content":"plants"}]}}`))
		}))
		defer srv.Close()

		c, err := NewLightRAGClient(srv.URL+"/", "secret", time.Second, httpkit.WithHTTPClient(srv.Client()))
		require.NoError(t, err)

		res, err := c.Query(context.Background(), "microgravity", NewOptions(5))
		require.NoError(t, err)

		assert.Equal(t, "microgravity", got["query"])
		assert.Equal(t, "mix", got["mode"])
		assert.EqualValues(t, 5, got["top_k"])
		assert.EqualValues(t, 5, got["chunk_top_k"])
		assert.EqualValues(t, 2000, got["max_total_tokens"])
		assert.Equal(t, true, got["only_need_context"])
		assert.Equal(t, false, got["enable_rerank"])

		data := res.(map[string]any)["data"].(map[string]any)
		assert.Len(t, data["chunks"], 1)
	})

	t.Run("422の場合は最小限のペイロードで再試行すること", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if _, ok := body["top_k"]; ok {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			assert.Len(t, body, 2)
			_, _ = w.Write([]byte(`{"raw_context":"ctx"}`))
		}))
		defer srv.Close()

		c, err := NewLightRAGClient(srv.URL, "", 0)
		require.NoError(t, err)

		res, err := c.Query(context.Background(), "topic", NewOptions(3))
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "ctx", res.(map[string]any)["raw_context"])
	})

	t.Run("404の場合は/queryの応答をraw_contextに変換すること", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/query/data" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"response":"flattened context"}`))
		}))
		defer srv.Close()

		c, err := NewLightRAGClient(srv.URL, "", 0)
		require.NoError(t, err)

		res, err := c.Query(context.Background(), "topic", NewOptions(3))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"raw_context": "flattened context"}, res)
	})

	t.Run("サーバーエラーはエラーとして返すこと", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, err := NewLightRAGClient(srv.URL, "", 0)
		require.NoError(t, err)

		_, err = c.Query(context.Background(), "topic", NewOptions(3))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("その他の4xxはステータスを含むエラーとして返すこと", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "bad key", http.StatusUnauthorized)
		}))
		defer srv.Close()

		c, err := NewLightRAGClient(srv.URL, "wrong", 0)
		require.NoError(t, err)

		_, err = c.Query(context.Background(), "topic", NewOptions(3))
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, statusOf(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("ベースURLが空ならエラーになること", func(t *testing.T) {
		_, err := NewLightRAGClient("  ", "", 0)
		assert.Error(t, err)
	})
}
