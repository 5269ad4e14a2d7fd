package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/tokens"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/logger"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/metrics"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Revoker stores tokens that must be refused before they expire.
type Revoker interface {
	Revoke(ctx context.Context, token string, until time.Time) error
}

// TokenHandler serves token issuance and, when a Revoker is set, revocation.
type TokenHandler struct {
	issuer  *tokens.Issuer
	revoker Revoker
}

// NewTokenHandler wires the handler. revoker may be nil.
func NewTokenHandler(issuer *tokens.Issuer, revoker Revoker) *TokenHandler {
	return &TokenHandler{issuer: issuer, revoker: revoker}
}

// Register mounts POST /jwt and, with a revoker, POST /jwt/revoke behind auth.
func (h *TokenHandler) Register(rg gin.IRouter, auth gin.HandlerFunc) {
	rg.POST("/jwt", h.Issue)
	if h.revoker != nil {
		rg.POST("/jwt/revoke", auth, h.Revoke)
	}
}

// Issue signs the JSON object body as token claims.
func (h *TokenHandler) Issue(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}
	claims, err := catalog.DecodeDocument(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "claims must be a JSON object"})
		return
	}
	token, err := h.issuer.Issue(claims)
	if err != nil {
		logger.Errorf("issue token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	metrics.TokensIssued.Inc()
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Revoke denylists the bearer token that authenticated the request until it expires.
func (h *TokenHandler) Revoke(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	exp, ok := tokens.ExpiresAt(middleware.Claims(c))
	if token == "" || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized access"})
		return
	}
	if err := h.revoker.Revoke(c.Request.Context(), token, exp); err != nil {
		logger.Errorf("revoke token: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
