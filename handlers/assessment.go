package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"eduscan-api/events"
	"eduscan-api/i18n"
	"eduscan-api/middleware"
	"eduscan-api/models"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/scoring"
	"eduscan-api/services"
	"eduscan-api/session"
	"eduscan-api/store"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

type AssessmentHandler struct {
	pipeline  *scoring.Pipeline
	records   *services.RecordService
	batch     *services.BatchService
	publisher events.Publisher
	metrics   *metrics.Collector
	logger    *logging.StructuredLogger
}

func NewAssessmentHandler(
	pipeline *scoring.Pipeline,
	records *services.RecordService,
	batch *services.BatchService,
	publisher events.Publisher,
	m *metrics.Collector,
	logger *logging.StructuredLogger,
) *AssessmentHandler {
	return &AssessmentHandler{
		pipeline:  pipeline,
		records:   records,
		batch:     batch,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

type AssessmentResponse struct {
	*scoring.Outcome
	StudentName    string `json:"student_name,omitempty"`
	RecordID       string `json:"record_id,omitempty"`
	Saved          bool   `json:"saved"`
	StorageWarning string `json:"storage_warning,omitempty"`
	Notice         string `json:"notice,omitempty"`
}

// Assess runs the pipeline on a submitted form. ?variant= picks the
// contract and ?save=true appends the result to the history.
func (h *AssessmentHandler) Assess(c *gin.Context) {
	var in models.AssessmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	variant := scoring.Variant(c.Query("variant"))
	save, _ := strconv.ParseBool(c.DefaultQuery("save", "false"))
	sess := middleware.GetSession(c)
	ctx := c.Request.Context()

	timer := metrics.NewTimer()
	out, err := h.pipeline.Score(ctx, variant, scoring.Input(in.Values()))
	if err != nil {
		h.writeScoringError(c, variant, err)
		return
	}
	h.metrics.RecordPrediction(string(out.Variant), out.Interpretation.RiskLabel, out.Fallback, timer.Duration())

	resp := AssessmentResponse{Outcome: out, StudentName: strings.TrimSpace(in.StudentName)}
	if out.Fallback {
		resp.Notice = i18n.For(i18n.Parse(sess.Language)).DemoModelNotice
	}

	if save {
		rec := services.NewPredictionRecord(in, out)
		err := h.records.SavePrediction(ctx, &rec)
		var ferr *store.FailureError
		switch {
		case errors.As(err, &ferr):
			resp.StorageWarning = "result could not be saved: " + ferr.Error()
		case err != nil:
			c.Error(err)
			resp.StorageWarning = "result could not be saved"
		default:
			resp.Saved = true
			resp.RecordID = rec.ID
			events.Async(h.publisher, events.New(events.TypePredictionSaved, rec), h.logger)
		}
	}

	sess.LastResult = &session.CachedResult{
		RecordID:    resp.RecordID,
		StudentName: resp.StudentName,
		Outcome:     out,
		At:          time.Now().UTC(),
	}
	sess.Page = "prediction"
	c.JSON(http.StatusOK, resp)
}

func (h *AssessmentHandler) writeScoringError(c *gin.Context, variant scoring.Variant, err error) {
	if variant == "" {
		variant = h.pipeline.DefaultVariant()
	}
	var verr *scoring.ValidationError
	switch {
	case errors.As(err, &verr):
		h.metrics.RecordValidationRejection(string(variant))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "messages": verr.Messages})
	case errors.Is(err, scoring.ErrMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scoring.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.metrics.RecordPredictionFailure(string(variant), "pipeline")
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
	}
}

// Current returns the last result shown to this session.
func (h *AssessmentHandler) Current(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess.LastResult == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no assessment in this session"})
		return
	}
	c.JSON(http.StatusOK, sess.LastResult)
}

func (h *AssessmentHandler) Reset(c *gin.Context) {
	sess := middleware.GetSession(c)
	sess.ResetForm()
	c.JSON(http.StatusOK, gin.H{"form_reset_counter": sess.FormResetCounter})
}

// Batch scores an uploaded CSV or XLSX file. ?format= selects json (the
// default), csv or xlsx for the response.
func (h *AssessmentHandler) Batch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, csv or xlsx"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer f.Close()

	isXLSX := strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx")
	table, err := services.ReadTable(f, isXLSX)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading file: " + err.Error()})
		return
	}

	res, err := h.batch.Process(c.Request.Context(), scoring.Variant(c.Query("variant")), table)
	var mcerr *services.MissingColumnsError
	switch {
	case errors.As(err, &mcerr):
		c.JSON(http.StatusBadRequest, gin.H{"error": mcerr.Error(), "missing_columns": mcerr.Columns})
		return
	case errors.Is(err, scoring.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch scoring failed"})
		return
	}

	switch format {
	case "csv":
		writeTable(c, res.Table(), services.BatchFilename("csv", time.Now()), "csv")
	case "xlsx":
		writeTable(c, res.Table(), services.BatchFilename("xlsx", time.Now()), "xlsx")
	default:
		c.JSON(http.StatusOK, res)
	}
}
