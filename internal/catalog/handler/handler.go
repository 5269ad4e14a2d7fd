package handler

import (
	"errors"
	"net/http"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/repository"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog/service"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/logger"
	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// RegisterRoutes mounts the services and reviews routes. auth guards the
// per-user review listing.
func RegisterRoutes(r gin.IRouter, svc *service.Catalog, auth gin.HandlerFunc) {
	h := &catalogHandler{svc: svc}

	r.GET("/services", h.listServices)
	r.POST("/services", h.createService)
	r.GET("/services/:id", h.getService)

	r.GET("/reviews", h.listReviews)
	r.POST("/reviews", h.createReview)
	r.GET("/reviews/:id", h.getReview)
	r.PATCH("/reviews/:id", h.updateReview)
	r.DELETE("/reviews/:id", h.deleteReview)
	r.PATCH("/reviews-help/:id", h.incrementReview)
	r.PATCH("/reviews-abuse/:id", h.incrementReview)

	r.GET("/service-reviews/:serviceID", h.reviewsByService)
	r.GET("/user-reviews/:userID", auth, h.reviewsByUser)
}

type catalogHandler struct {
	svc *service.Catalog
}

func (h *catalogHandler) listServices(c *gin.Context) {
	limit, err := service.ParseLimit(c.Query("datasize"))
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.svc.ListServices(c.Request.Context(), limit)
	respond(c, out, err)
}

func (h *catalogHandler) createService(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.CreateService(c.Request.Context(), doc)
	respond(c, res, err)
}

func (h *catalogHandler) getService(c *gin.Context) {
	doc, err := h.svc.GetService(c.Request.Context(), c.Param("id"))
	respond(c, doc, err)
}

func (h *catalogHandler) listReviews(c *gin.Context) {
	out, err := h.svc.ListReviews(c.Request.Context())
	respond(c, out, err)
}

func (h *catalogHandler) createReview(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.CreateReview(c.Request.Context(), doc)
	respond(c, res, err)
}

func (h *catalogHandler) getReview(c *gin.Context) {
	doc, err := h.svc.GetReview(c.Request.Context(), c.Param("id"))
	respond(c, doc, err)
}

func (h *catalogHandler) reviewsByService(c *gin.Context) {
	out, err := h.svc.ReviewsByService(c.Request.Context(), c.Param("serviceID"))
	respond(c, out, err)
}

func (h *catalogHandler) reviewsByUser(c *gin.Context) {
	userID := c.Param("userID")
	if middleware.ClaimString(c, "uid") != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden access"})
		return
	}
	out, err := h.svc.ReviewsByUser(c.Request.Context(), userID)
	respond(c, out, err)
}

func (h *catalogHandler) updateReview(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.UpdateReview(c.Request.Context(), c.Param("id"), doc)
	respond(c, res, err)
}

// incrementReview serves both the help and abuse counters; the body names
// the fields and their deltas.
func (h *catalogHandler) incrementReview(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	res, err := h.svc.IncrementReview(c.Request.Context(), c.Param("id"), doc)
	respond(c, res, err)
}

func (h *catalogHandler) deleteReview(c *gin.Context) {
	res, err := h.svc.DeleteReview(c.Request.Context(), c.Param("id"))
	respond(c, res, err)
}

func bindDocument(c *gin.Context) (catalog.Document, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return nil, false
	}
	doc, err := catalog.DecodeDocument(body)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return doc, true
}

func respond(c *gin.Context, v interface{}, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// writeError maps service and store failures onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
	case errors.Is(err, catalog.ErrInvalidInput), errors.Is(err, repository.ErrRejected):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "document already exists"})
	case errors.Is(err, repository.ErrUnavailable):
		logger.Warnf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
