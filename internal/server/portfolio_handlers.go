package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/portfolios"
	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeUnauthorized    = "UNAUTHORIZED"
	codeNotFound        = "NOT_FOUND"
	codeInvalidID       = "INVALID_ID"
	codeInvalidName     = "INVALID_NAME"
	codeInvalidData     = "INVALID_DATA"
	codeInvalidSections = "INVALID_SECTIONS"
	codeVersionConflict = "VERSION_CONFLICT"

	maxRequestBodyBytes = 4 << 20
)

var errBodyNotObject = errors.New("request body must be a JSON object")

type portfolioEnvelope struct {
	Success   bool                 `json:"success"`
	Portfolio portfolios.Portfolio `json:"portfolio"`
}

type publicPortfolioEnvelope struct {
	Success   bool                       `json:"success"`
	Portfolio portfolios.PublicPortfolio `json:"portfolio"`
}

type portfolioListEnvelope struct {
	Success    bool                   `json:"success"`
	Portfolios []portfolios.Portfolio `json:"portfolios"`
}

type catalogEnvelope struct {
	Success  bool                  `json:"success"`
	Sections []sections.Descriptor `json:"sections"`
}

type namePayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleListPortfolios(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	list, err := h.portfolios.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.writeServiceError(c, "list", err)
		return
	}
	if list == nil {
		list = []portfolios.Portfolio{}
	}
	h.metrics.observeOperation("list", outcomeOK)
	c.JSON(http.StatusOK, portfolioListEnvelope{Success: true, Portfolios: list})
}

func (h *httpHandler) handleCreatePortfolio(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var payload namePayload
	if err := decodeObject(c, &payload, false); err != nil {
		h.writeInvalidData(c, "create", err)
		return
	}
	created, err := h.portfolios.Create(c.Request.Context(), ownerID, payload.Name)
	if err != nil {
		h.writeServiceError(c, "create", err)
		return
	}
	h.metrics.observeOperation("create", outcomeOK)
	h.publishChange(ownerID, created.ID)
	c.JSON(http.StatusOK, portfolioEnvelope{Success: true, Portfolio: created})
}

func (h *httpHandler) handleGetPortfolio(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	portfolio, found, err := h.portfolios.Get(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		h.writeServiceError(c, "get", err)
		return
	}
	if !found {
		h.writeNotFound(c, "get")
		return
	}
	h.metrics.observeOperation("get", outcomeOK)
	c.JSON(http.StatusOK, portfolioEnvelope{Success: true, Portfolio: portfolio})
}

// handleUpdatePortfolio accepts any JSON object. Fields that are unknown or not
// client-writable (id, userId, slug, status, timestamps) are ignored.
func (h *httpHandler) handleUpdatePortfolio(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var patch portfolios.Patch
	if err := decodeObject(c, &patch, true); err != nil {
		h.writeInvalidData(c, "update", err)
		return
	}
	updated, found, err := h.portfolios.Update(c.Request.Context(), c.Param("id"), ownerID, patch)
	if err != nil {
		h.writeServiceError(c, "update", err)
		return
	}
	if !found {
		h.writeNotFound(c, "update")
		return
	}
	h.metrics.observeOperation("update", outcomeOK)
	h.publishChange(ownerID, updated.ID)
	c.JSON(http.StatusOK, portfolioEnvelope{Success: true, Portfolio: updated})
}

func (h *httpHandler) handleDeletePortfolio(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	portfolioID := c.Param("id")
	deleted, err := h.portfolios.Delete(c.Request.Context(), portfolioID, ownerID)
	if err != nil {
		h.writeServiceError(c, "delete", err)
		return
	}
	if !deleted {
		h.writeNotFound(c, "delete")
		return
	}
	h.metrics.observeOperation("delete", outcomeOK)
	h.publishChange(ownerID, portfolioID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *httpHandler) handlePublishPortfolio(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	published, found, err := h.portfolios.Publish(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		h.writeServiceError(c, "publish", err)
		return
	}
	if !found {
		h.writeNotFound(c, "publish")
		return
	}
	h.metrics.observeOperation("publish", outcomeOK)
	h.publishChange(ownerID, published.ID)
	c.JSON(http.StatusOK, portfolioEnvelope{Success: true, Portfolio: published})
}

// handleDuplicatePortfolio copies a portfolio. The body is optional; a missing
// or empty name yields "<name> (Copy)".
func (h *httpHandler) handleDuplicatePortfolio(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var payload namePayload
	if err := decodeObject(c, &payload, false); err != nil {
		h.writeInvalidData(c, "duplicate", err)
		return
	}
	copied, found, err := h.portfolios.Duplicate(c.Request.Context(), c.Param("id"), ownerID, payload.Name)
	if err != nil {
		h.writeServiceError(c, "duplicate", err)
		return
	}
	if !found {
		h.writeNotFound(c, "duplicate")
		return
	}
	h.metrics.observeOperation("duplicate", outcomeOK)
	h.publishChange(ownerID, copied.ID)
	c.JSON(http.StatusOK, portfolioEnvelope{Success: true, Portfolio: copied})
}

func (h *httpHandler) handlePublishedPortfolio(c *gin.Context) {
	portfolio, found, err := h.portfolios.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeServiceError(c, "get_published", err)
		return
	}
	if !found {
		h.writeNotFound(c, "get_published")
		return
	}
	h.metrics.observeOperation("get_published", outcomeOK)
	c.JSON(http.StatusOK, publicPortfolioEnvelope{Success: true, Portfolio: portfolio.Public()})
}

func (h *httpHandler) handleSectionCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, catalogEnvelope{Success: true, Sections: sections.Catalog()})
}

func (h *httpHandler) requireOwner(c *gin.Context) (portfolios.OwnerID, bool) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": codeUnauthorized})
		return "", false
	}
	return ownerID, true
}

func (h *httpHandler) publishChange(ownerID portfolios.OwnerID, portfolioID string) {
	h.realtime.Publish(RealtimeMessage{
		UserID:       ownerID.String(),
		EventType:    RealtimeEventPortfolioChanged,
		PortfolioIDs: []string{portfolioID},
		Timestamp:    time.Now().UTC(),
	})
}

// decodeObject reads the request body as a JSON object into target. With
// required unset, an empty body leaves target untouched.
func decodeObject(c *gin.Context, target any, required bool) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBodyBytes))
	if err != nil {
		return err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		if required {
			return errBodyNotObject
		}
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return errBodyNotObject
	}
	return json.Unmarshal(raw, target)
}

func (h *httpHandler) writeInvalidData(c *gin.Context, operation string, err error) {
	h.metrics.observeOperation(operation, outcomeInvalid)
	message := "Invalid request data"
	if errors.Is(err, errBodyNotObject) {
		message = errBodyNotObject.Error()
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": codeInvalidData})
}

func (h *httpHandler) writeNotFound(c *gin.Context, operation string) {
	h.metrics.observeOperation(operation, outcomeNotFound)
	c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found", "code": codeNotFound})
}

// writeServiceError maps access layer failures onto responses. Store failures
// were already logged by the service; the handler logs once more with the route.
func (h *httpHandler) writeServiceError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, portfolios.ErrInvalidPortfolioID):
		h.metrics.observeOperation(operation, outcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid portfolio id", "code": codeInvalidID})
	case errors.Is(err, portfolios.ErrInvalidName):
		h.metrics.observeOperation(operation, outcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Portfolio name is required", "code": codeInvalidName})
	case errors.Is(err, portfolios.ErrInvalidSections):
		h.metrics.observeOperation(operation, outcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sections", "code": codeInvalidSections})
	case errors.Is(err, portfolios.ErrInvalidPatch):
		h.metrics.observeOperation(operation, outcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "code": codeInvalidData})
	case errors.Is(err, portfolios.ErrVersionConflict):
		h.metrics.observeOperation(operation, outcomeConflict)
		c.JSON(http.StatusConflict, gin.H{"error": "Portfolio was modified by another session", "code": codeVersionConflict})
	default:
		h.metrics.observeOperation(operation, outcomeError)
		h.logger.Error("portfolio request failed",
			zap.String("operation", operation),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		body := gin.H{"error": "Internal server error"}
		var serviceErr *portfolios.ServiceError
		if errors.As(err, &serviceErr) {
			body["code"] = serviceErr.Code()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}
