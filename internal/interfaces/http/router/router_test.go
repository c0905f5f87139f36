package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	assert.Equal(t, "v2", NewRouter(gin.New(), WithAPIVersion("v2")).apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	docs := NewDomainGroup("billing-documents", "/billing-documents")
	docs.GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
		GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "get "+c.Param("id")) }).
		POST("", func(c *gin.Context) { c.String(http.StatusOK, "generate") })

	r.Register(docs).Setup()

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/billing-documents", "list"},
		{http.MethodGet, "/api/v1/billing-documents/90000001", "get 90000001"},
		{http.MethodPost, "/api/v1/billing-documents", "generate"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.body, w.Body.String())
	}

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/billing-documents").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("exposes name and prefix", func(t *testing.T) {
		g := NewDomainGroup("billing-documents", "/billing-documents")
		assert.Equal(t, "billing-documents", g.Name())
		assert.Equal(t, "/billing-documents", g.Prefix())
	})

	t.Run("applies group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("docs", "/docs").Use(func(c *gin.Context) {
			c.Header("X-Group", "docs")
			c.Next()
		})
		g.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		NewRouter(engine).Register(g).Setup()

		w := serve(engine, http.MethodGet, "/api/v1/docs/x")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "docs", w.Header().Get("X-Group"))
	})

	t.Run("nests subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("docs", "/docs")
		g.Group("items", "/items").GET("", func(c *gin.Context) { c.String(http.StatusOK, "items") })
		NewRouter(engine).Register(g).Setup()

		w := serve(engine, http.MethodGet, "/api/v1/docs/items")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "items", w.Body.String())
	})
}
