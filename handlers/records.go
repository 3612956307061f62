package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"eduscan-api/events"
	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/services"
	"eduscan-api/store"
	"eduscan-api/validation"

	"github.com/gin-gonic/gin"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// writeTable sends t as a file download.
func writeTable(c *gin.Context, t services.Table, filename, format string) {
	var buf bytes.Buffer
	var err error
	contentType := contentTypeCSV
	if format == "xlsx" {
		contentType = contentTypeXLSX
		err = t.WriteXLSX(&buf)
	} else {
		err = t.WriteCSV(&buf)
	}
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render file"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func readFailed(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read records"})
}

type PredictionHandler struct {
	records *services.RecordService
}

func NewPredictionHandler(records *services.RecordService) *PredictionHandler {
	return &PredictionHandler{records: records}
}

// GetPredictions lists history newest first with cursor pagination.
func (h *PredictionHandler) GetPredictions(c *gin.Context) {
	p, err := ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.records.ListPredictions(c.Request.Context(), services.PredictionQuery{
		Student: c.Query("student"),
		Before:  p.Before,
		Limit:   p.Limit,
	})
	if err != nil {
		readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, cursorPage(page))
}

func (h *PredictionHandler) GetAnalytics(c *gin.Context) {
	out, err := h.records.PredictionAnalytics(c.Request.Context(), c.Query("student"))
	if err != nil {
		readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Export downloads ?type=predictions|observations as ?format=csv|xlsx.
func (h *PredictionHandler) Export(c *gin.Context) {
	kind := c.DefaultQuery("type", services.ExportPredictions)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}
	t, name, err := h.records.Export(c.Request.Context(), kind, format)
	switch {
	case errors.Is(err, services.ErrUnknownExport):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": "No data to export"})
		return
	case err != nil:
		readFailed(c, err)
		return
	}
	writeTable(c, t, name, format)
}

type ObservationHandler struct {
	records   *services.RecordService
	publisher events.Publisher
	logger    *logging.StructuredLogger
}

func NewObservationHandler(records *services.RecordService, publisher events.Publisher, logger *logging.StructuredLogger) *ObservationHandler {
	return &ObservationHandler{records: records, publisher: publisher, logger: logger}
}

func (h *ObservationHandler) CreateObservation(c *gin.Context) {
	var obs models.ParentObservation
	if err := c.ShouldBindJSON(&obs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	obs.ID = ""
	obs.Timestamp = ""

	err := h.records.SaveObservation(c.Request.Context(), &obs)
	var verr *validation.Error
	var ferr *store.FailureError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
		return
	case errors.As(err, &ferr):
		c.JSON(http.StatusOK, gin.H{"data": obs, "saved": false, "storage_warning": ferr.Error()})
		return
	case err != nil:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save observation"})
		return
	}

	events.Async(h.publisher, events.New(events.TypeObservationSaved, obs), h.logger)
	c.JSON(http.StatusCreated, gin.H{"data": obs, "saved": true})
}

func observationQuery(c *gin.Context) (services.ObservationQuery, bool) {
	q := services.ObservationQuery{Child: c.Query("child"), From: c.Query("from"), To: c.Query("to")}
	for _, d := range []string{q.From, q.To} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be YYYY-MM-DD"})
			return q, false
		}
	}
	return q, true
}

func (h *ObservationHandler) GetObservations(c *gin.Context) {
	q, ok := observationQuery(c)
	if !ok {
		return
	}
	obs, err := h.records.ListObservations(c.Request.Context(), q)
	if err != nil {
		readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": obs, "count": len(obs)})
}

func (h *ObservationHandler) GetSummary(c *gin.Context) {
	q, ok := observationQuery(c)
	if !ok {
		return
	}
	out, err := h.records.ObservationSummary(c.Request.Context(), q)
	if err != nil {
		readFailed(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type AdminHandler struct {
	records   *services.RecordService
	daysOld   int
	publisher events.Publisher
	logger    *logging.StructuredLogger
}

func NewAdminHandler(records *services.RecordService, daysOld int, publisher events.Publisher, logger *logging.StructuredLogger) *AdminHandler {
	return &AdminHandler{records: records, daysOld: daysOld, publisher: publisher, logger: logger}
}

func (h *AdminHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.records.Summary(c.Request.Context()))
}

// Purge removes records older than ?days= (default from config).
func (h *AdminHandler) Purge(c *gin.Context) {
	days := h.daysOld
	if s := c.Query("days"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a non-negative integer"})
			return
		}
		days = d
	}
	report, err := h.records.Purge(c.Request.Context(), days)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed", "report": report})
		return
	}
	events.Async(h.publisher, events.New(events.TypePurgeCompleted, report), h.logger)
	c.JSON(http.StatusOK, report)
}
