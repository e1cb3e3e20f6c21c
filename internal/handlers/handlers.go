package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mischavandenburg/health-api/internal/aggregator"
	"github.com/mischavandenburg/health-api/internal/ingest"
	"github.com/mischavandenburg/health-api/internal/models"
)

// Handler exposes the push-pipeline endpoints over the ingest service.
type Handler struct {
	service *ingest.Service
}

func New(service *ingest.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the API routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/health-export")
	{
		api.POST("/dietary-energy", h.ingestHandler(ingest.DietSpec))
		api.POST("/body-composition", h.ingestHandler(ingest.BodyCompositionSpec))
		api.POST("/echo", h.Echo)
	}
	router.GET("/health", h.Health)
}

// ingestHandler creates a gin.HandlerFunc that runs the push pipeline for
// one target table spec.
func (h *Handler) ingestHandler(spec ingest.TableSpec) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload models.HealthPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid request payload", gin.H{"reason": err.Error()})
			return
		}

		ingestID := uuid.New()
		log.Printf("Ingest %s: received %d metrics for table %s", ingestID, len(payload.Data.Metrics), spec.Table.Name)

		result, err := h.service.IngestMetrics(payload.Data.Metrics, spec)
		if err != nil {
			var parseErr *aggregator.ParseError
			if errors.As(err, &parseErr) {
				RespondWithError(c, http.StatusBadRequest, models.ErrorCodeParse, "Malformed sample timestamp", gin.H{
					"metric": parseErr.Metric,
					"value":  parseErr.Value,
				})
				return
			}
			log.Printf("Ingest %s: failed for table %s: %v", ingestID, spec.Table.Name, err)
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to process data", gin.H{"error": err.Error()})
			return
		}

		log.Printf("Ingest %s: processed %d samples, wrote %d rows to table %s", ingestID, result.SamplesProcessed, result.RowsWritten, spec.Table.Name)
		c.JSON(http.StatusOK, gin.H{
			"message":           "Data processed successfully",
			"ingest_id":         ingestID,
			"table":             spec.Table.Name,
			"samples_processed": result.SamplesProcessed,
			"rows_written":      result.RowsWritten,
		})
	}
}

// Echo logs and returns the request body unchanged. Diagnostic aid for
// inspecting what the exporter actually sends.
func (h *Handler) Echo(c *gin.Context) {
	var body interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidJSON, "Body is not valid JSON", gin.H{"reason": err.Error()})
		return
	}
	log.Printf("Echo: %v", body)
	c.JSON(http.StatusOK, body)
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
