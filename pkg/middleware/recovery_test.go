package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRecovery_ReturnsJSON500(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(c *gin.Context) { panic("store handle missing") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	require.Contains(t, buf.String(), "store handle missing")
}

func TestRequestLogger_LogsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)

	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/services/:id", func(c *gin.Context) { c.JSON(http.StatusOK, nil) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/services/abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, buf.String(), `"route":"/services/:id"`)
	require.Contains(t, buf.String(), `"status":200`)
}
