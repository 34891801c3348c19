package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tierboard/pkg/requestcontext"
)

func capture(t *testing.T, chain func(http.Handler) http.Handler, req *http.Request) (ctx map[string]string, rec *httptest.ResponseRecorder) {
	t.Helper()
	got := map[string]string{}
	handler := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got["request_id"] = requestcontext.RequestID(r.Context())
		got["actor"] = requestcontext.Actor(r.Context())
		got["ip"] = requestcontext.ClientIP(r.Context())
		got["ua"] = requestcontext.UserAgent(r.Context())
	}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return got, rec
}

func TestRequestContext(t *testing.T) {
	t.Run("generates an id when absent", func(t *testing.T) {
		got, rec := capture(t, RequestContext, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, got["request_id"])
		assert.Equal(t, got["request_id"], rec.Header().Get("X-Request-ID"))
	})

	t.Run("keeps a caller-supplied id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		got, _ := capture(t, RequestContext, req)
		assert.Equal(t, "req-123", got["request_id"])
	})
}

func TestActor(t *testing.T) {
	logger := slog.Default()

	t.Run("no header means default actor", func(t *testing.T) {
		got, _ := capture(t, Actor(nil, logger), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, requestcontext.DefaultActor, got["actor"])
	})

	t.Run("open list accepts any actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Actor", "jdoe")
		got, _ := capture(t, Actor(nil, logger), req)
		assert.Equal(t, "jdoe", got["actor"])
	})

	t.Run("actor outside the allow-list is demoted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Actor", "intruder")
		got, _ := capture(t, Actor([]string{"jdoe", "msmith"}, logger), req)
		assert.Equal(t, requestcontext.DefaultActor, got["actor"])
	})
}

func TestClientMetadata(t *testing.T) {
	t.Run("forwarded header wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		got, _ := capture(t, ClientMetadata, req)
		assert.Equal(t, "203.0.113.7", got["ip"])
	})

	t.Run("user agent is normalized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		got, _ := capture(t, ClientMetadata, req)
		assert.Contains(t, got["ua"], "Chrome")
		assert.NotContains(t, got["ua"], "KHTML")
	})
}
