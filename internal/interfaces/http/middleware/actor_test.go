package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/oms/backend/internal/infrastructure/logger"
)

func TestActor(t *testing.T) {
	router := gin.New()
	router.Use(Actor())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetActor(c))
	})

	t.Run("uses the X-Actor header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorHeader, "jordan")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "jordan", w.Body.String())
	})

	t.Run("falls back to the default actor", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, DefaultActor, w.Body.String())
	})

	t.Run("whitespace-only header is treated as absent", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(ActorHeader, "   ")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, DefaultActor, w.Body.String())
	})
}

func TestActorPropagatesToRequestContext(t *testing.T) {
	router := gin.New()
	router.Use(Actor())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetActor(c.Request.Context()))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(ActorHeader, "reconciler")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "reconciler", w.Body.String())
}

func TestGetActorWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, DefaultActor, GetActor(c))
}
