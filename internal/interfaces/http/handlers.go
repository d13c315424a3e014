package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/milvoyage/tdy-engine/internal/dates"
	"github.com/milvoyage/tdy-engine/internal/domain/entity"
	"github.com/milvoyage/tdy-engine/internal/estimator"
)

// TripStore is the trip persistence the handlers need.
type TripStore interface {
	Create(ctx context.Context, trip *entity.Trip) error
	GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Trip, error)
}

// ItemStore persists normalized expense items.
type ItemStore interface {
	CreateBatch(ctx context.Context, items []entity.ExpenseItem) error
	GetByTripID(ctx context.Context, tripID string) ([]entity.ExpenseItem, error)
}

// Normalizer converts raw receipt text into expense items.
type Normalizer interface {
	Normalize(trip *entity.Trip, docType, rawText string, mileageRateCents int64) []entity.ExpenseItem
}

// Extractor pulls raw text out of an uploaded receipt document.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// Estimator computes trip estimates.
type Estimator interface {
	EstimateTrip(ctx context.Context, tripID, userID string) (*entity.EstimateTotals, error)
}

// Handlers contains all HTTP request handlers.
type Handlers struct {
	trips            TripStore
	items            ItemStore
	normalizer       Normalizer
	extractor        Extractor
	estimator        Estimator
	mileageRateCents int64
	logger           *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(trips TripStore, items ItemStore, normalizer Normalizer, extractor Extractor, est Estimator, mileageRateCents int64, logger *zap.Logger) *Handlers {
	return &Handlers{
		trips:            trips,
		items:            items,
		normalizer:       normalizer,
		extractor:        extractor,
		estimator:        est,
		mileageRateCents: mileageRateCents,
		logger:           logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreateTripRequest is the trip creation payload.
type CreateTripRequest struct {
	Destination string `json:"destination" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// NormalizeRequest carries one document's extracted text and its declared
// category.
type NormalizeRequest struct {
	DocType string `json:"doc_type" binding:"required"`
	RawText string `json:"raw_text" binding:"required"`
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tdy-engine",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// CreateTrip handles POST /api/v1/trips.
func (h *Handlers) CreateTrip(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "missing X-User-ID header"})
		return
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}

	start, okStart := dates.Parse(req.StartDate)
	end, okEnd := dates.Parse(req.EndDate)
	if !okStart || !okEnd || end < start {
		c.JSON(http.StatusBadRequest, Response{Error: "invalid trip date range"})
		return
	}

	trip := &entity.Trip{
		ID:          uuid.NewString(),
		UserID:      userID,
		Destination: strings.TrimSpace(req.Destination),
		StartDate:   start,
		EndDate:     end,
	}
	if err := h.trips.Create(c.Request.Context(), trip); err != nil {
		h.logger.Error("Failed to create trip", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to create trip"})
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: trip})
}

// NormalizeReceipt handles POST /api/v1/trips/:id/items: it runs the
// heuristic normalizer over the document text and persists whatever it
// confidently extracted. Zero extracted items is a success, not an error.
func (h *Handlers) NormalizeReceipt(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "missing X-User-ID header"})
		return
	}

	trip, err := h.trips.GetByIDAndUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to load trip"})
		return
	}
	if trip == nil {
		c.JSON(http.StatusNotFound, Response{Error: "trip not found"})
		return
	}

	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	docType := strings.ToUpper(strings.TrimSpace(req.DocType))
	if !entity.ValidDocType(docType) {
		c.JSON(http.StatusBadRequest, Response{Error: "unknown doc_type"})
		return
	}

	items := h.normalizer.Normalize(trip, docType, req.RawText, h.mileageRateCents)
	if len(items) > 0 {
		if err := h.items.CreateBatch(c.Request.Context(), items); err != nil {
			h.logger.Error("Failed to persist extracted items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, Response{Error: "failed to persist items"})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// UploadReceipt handles POST /api/v1/trips/:id/documents: a multipart
// upload of a receipt document (PDF or plain text) plus its declared
// category. The document text is extracted, normalized, and the resulting
// items persisted, exactly as if the caller had posted the raw text.
func (h *Handlers) UploadReceipt(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "missing X-User-ID header"})
		return
	}

	trip, err := h.trips.GetByIDAndUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to load trip"})
		return
	}
	if trip == nil {
		c.JSON(http.StatusNotFound, Response{Error: "trip not found"})
		return
	}

	docType := strings.ToUpper(strings.TrimSpace(c.PostForm("doc_type")))
	if !entity.ValidDocType(docType) {
		c.JSON(http.StatusBadRequest, Response{Error: "unknown doc_type"})
		return
	}

	upload, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "missing file upload"})
		return
	}

	tmpDir, err := os.MkdirTemp("", "receipt-upload-")
	if err != nil {
		h.logger.Error("Failed to create upload scratch dir", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to store upload"})
		return
	}
	defer os.RemoveAll(tmpDir)

	dest := filepath.Join(tmpDir, filepath.Base(upload.Filename))
	if err := c.SaveUploadedFile(upload, dest); err != nil {
		h.logger.Error("Failed to save uploaded document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to store upload"})
		return
	}

	text, err := h.extractor.ExtractText(dest)
	if err != nil {
		h.logger.Warn("Failed to extract document text",
			zap.String("filename", upload.Filename),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{Error: "failed to extract document text"})
		return
	}

	items := h.normalizer.Normalize(trip, docType, text, h.mileageRateCents)
	if len(items) > 0 {
		if err := h.items.CreateBatch(c.Request.Context(), items); err != nil {
			h.logger.Error("Failed to persist extracted items", zap.Error(err))
			c.JSON(http.StatusInternalServerError, Response{Error: "failed to persist items"})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// ListItems handles GET /api/v1/trips/:id/items.
func (h *Handlers) ListItems(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "missing X-User-ID header"})
		return
	}

	trip, err := h.trips.GetByIDAndUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to load trip"})
		return
	}
	if trip == nil {
		c.JSON(http.StatusNotFound, Response{Error: "trip not found"})
		return
	}

	items, err := h.items.GetByTripID(c.Request.Context(), trip.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to load items"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// EstimateTrip handles GET /api/v1/trips/:id/estimate.
func (h *Handlers) EstimateTrip(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, Response{Error: "missing X-User-ID header"})
		return
	}

	totals, err := h.estimator.EstimateTrip(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, estimator.ErrTripNotFound) {
			c.JSON(http.StatusNotFound, Response{Error: "trip not found"})
			return
		}
		h.logger.Error("Failed to estimate trip",
			zap.String("trip_id", c.Param("id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Error: "failed to estimate trip"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: totals})
}

// callerID reads the authenticated caller's id. Authentication itself is an
// upstream concern; this service trusts the gateway-set header.
func callerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-User-ID"))
}
