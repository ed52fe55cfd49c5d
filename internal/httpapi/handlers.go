package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/internal/catalog"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// Handler serves the catalog resources.
type Handler struct {
	svc *catalog.Service
	log *zap.Logger
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *catalog.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}

// bindJSON decodes the body into dst, reporting failures as invalid input.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, h.log, fmt.Errorf("%w: %v", types.ErrInvalidData, err))
		return false
	}
	return true
}

func list[Out any](h *Handler, fn func(context.Context) ([]Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := fn(c.Request.Context())
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func create[In, Out any](h *Handler, fn func(context.Context, In) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in In
		if !h.bindJSON(c, &in) {
			return
		}
		out, err := fn(c.Request.Context(), in)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func get[Out any](h *Handler, fn func(context.Context, string) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := fn(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func update[P, Out any](h *Handler, fn func(context.Context, string, P) (*Out, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch P
		if !h.bindJSON(c, &patch) {
			return
		}
		out, err := fn(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func remove(h *Handler, fn func(context.Context, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListItems lists items, optionally filtered by category_id and tag_id.
func (h *Handler) ListItems(c *gin.Context) {
	h.listItems(c, types.ItemFilter{
		CategoryID: c.Query("category_id"),
		TagID:      c.Query("tag_id"),
	})
}

// CategoryItems lists the items of one category; 404 if it does not exist.
func (h *Handler) CategoryItems(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.GetCategory(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.listItems(c, types.ItemFilter{CategoryID: id})
}

// TagItems lists the items carrying one tag; 404 if it does not exist.
func (h *Handler) TagItems(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.GetTag(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.listItems(c, types.ItemFilter{TagID: id})
}

func (h *Handler) listItems(c *gin.Context, filter types.ItemFilter) {
	items, err := h.svc.ListItems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ProtocolMetadata returns only the aggregated metadata of a protocol.
func (h *Handler) ProtocolMetadata(c *gin.Context) {
	meta, err := h.svc.ProtocolMetadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}
