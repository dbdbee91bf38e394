package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chatapi "github.com/neuraltalk/chat-backend/internal/api/chat"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter() http.Handler {
	return SetupRouter(Handlers{Chat: chatapi.NewHandler(nil, time.Minute)}, nil, zap.NewNop())
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRouter_ServesOpenAPIDocument(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/api/chat")

	rec = httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/docs/index.html", rec.Header().Get("Location"))
}

func TestRouter_DatabaseRoutesDisabled(t *testing.T) {
	for _, path := range []string{"/users/u1/chatbots", "/conversations/abc", "/namespaces/acme/documents"} {
		rec := httptest.NewRecorder()
		newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
