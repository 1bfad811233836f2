package api

import (
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"landfolio/server/internal/aggregate"
	"landfolio/server/internal/crm"
	"landfolio/server/internal/derive"
	"landfolio/server/internal/ingest"
	"landfolio/server/internal/models"
	"landfolio/server/internal/report"
	"landfolio/server/internal/store"
)

type Handler struct {
	sessions       *store.Store
	engine         *derive.Engine
	enricher       *crm.Enricher
	maxUploadBytes int64
	logger         *logrus.Logger
}

// PropertyFilter selects a subset of the detail table. Empty fields match
// everything.
type PropertyFilter struct {
	Status      string `form:"status"`
	State       string `form:"state"`
	County      string `form:"county"`
	ListingType string `form:"listing_type"`
}

func (f *PropertyFilter) matches(d *models.DerivedProperty) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.State != "" && d.State != f.State {
		return false
	}
	if f.County != "" && d.County != f.County {
		return false
	}
	if f.ListingType != "" && d.ListingType != f.ListingType {
		return false
	}
	return true
}

// NewHandler wires the API surface. The enricher may be nil when the CRM
// lookup is not configured; the leads endpoint then reports that plainly.
func NewHandler(sessions *store.Store, engine *derive.Engine, enricher *crm.Enricher, maxUploadBytes int64, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		sessions:       sessions,
		engine:         engine,
		enricher:       enricher,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadCSV ingests a CRM export, runs the derivation pass and stores the
// result as a new session. Processing failures surface as one visible
// message; a partial table is never published.
func (h *Handler) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.WithError(err).Error("Upload without CSV file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "No CSV file provided"})
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Uploaded file is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.WithError(err).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	result, err := ingest.ParseCSV(file, h.logger)
	if err != nil {
		h.logger.WithError(err).Error("Failed to parse uploaded CSV")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error processing file: " + err.Error()})
		return
	}

	derived := h.engine.Process(result)
	session := h.sessions.Put(fileHeader.Filename, derived, result.Columns)
	available, missing := result.AvailableKeyFields()

	c.JSON(http.StatusCreated, gin.H{
		"session_id":       session.ID,
		"row_count":        result.RowCount,
		"available_fields": available,
		"missing_fields":   missing,
	})
}

// GetSummary returns the portfolio totals plus the full status -> state ->
// county hierarchy, recomputed from the session table on every call.
func (h *Handler) GetSummary(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, aggregate.Build(session.Properties))
}

// GetProperties returns the derived detail table, filtered and in the fixed
// default sort: status priority, then state, then county.
func (h *Handler) GetProperties(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	filter, ok := h.filter(c)
	if !ok {
		return
	}

	properties := filterProperties(session.Properties, filter)
	aggregate.SortProperties(properties)

	c.JSON(http.StatusOK, gin.H{
		"count":      len(properties),
		"properties": properties,
	})
}

type chartSlice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GetStatusChart returns the categorical status distribution in the fixed
// status display order.
func (h *Handler) GetStatusChart(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	counts := make(map[string]int)
	for i := range session.Properties {
		counts[session.Properties[i].Status]++
	}

	var slices []chartSlice
	for _, status := range aggregate.StatusOrder(session.Properties) {
		slices = append(slices, chartSlice{Label: status, Count: counts[status]})
	}
	c.JSON(http.StatusOK, gin.H{"slices": slices})
}

// GetStateChart returns the per-state distribution, largest bucket first.
func (h *Handler) GetStateChart(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	counts := make(map[string]int)
	for i := range session.Properties {
		counts[session.Properties[i].State]++
	}

	slices := make([]chartSlice, 0, len(counts))
	for state, count := range counts {
		slices = append(slices, chartSlice{Label: state, Count: count})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Count != slices[j].Count {
			return slices[i].Count > slices[j].Count
		}
		return slices[i].Label < slices[j].Label
	})
	c.JSON(http.StatusOK, gin.H{"slices": slices})
}

// GetChecklistReport streams the missing-information checklist PDF for the
// filtered record set.
func (h *Handler) GetChecklistReport(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	now := time.Now()
	data, err := report.Checklist(filterProperties(session.Properties, filter), now)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate checklist report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate checklist report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.ChecklistFilename(now)+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// GetInventoryReport streams the full inventory PDF for the filtered record
// set. ?page_breaks=true starts each status section on its own page.
func (h *Handler) GetInventoryReport(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	now := time.Now()
	data, err := report.Inventory(filterProperties(session.Properties, filter), report.InventoryOptions{
		GeneratedAt:       now,
		PageBreakSections: c.Query("page_breaks") == "true",
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate inventory report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate inventory report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+report.InventoryFilename(now)+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// RefreshLeads runs the serial CRM lead lookup pass over the session.
func (h *Handler) RefreshLeads(c *gin.Context) {
	if h.enricher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "CRM lead lookup is not configured"})
		return
	}

	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	enriched, failed, err := h.enricher.EnrichSession(c.Request.Context(), id)
	if err != nil {
		if err == store.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.WithError(err).Error("Lead enrichment pass failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lead enrichment failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enriched": enriched, "failed": failed})
}

// DeleteSession drops a session table.
func (h *Handler) DeleteSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) session(c *gin.Context) (*store.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}
	session, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}

func (h *Handler) filter(c *gin.Context) (*PropertyFilter, bool) {
	var filter PropertyFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.WithError(err).Error("Failed to parse property filter")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return nil, false
	}
	return &filter, true
}

func filterProperties(properties []models.DerivedProperty, filter *PropertyFilter) []models.DerivedProperty {
	out := make([]models.DerivedProperty, 0, len(properties))
	for i := range properties {
		if filter.matches(&properties[i]) {
			out = append(out, properties[i])
		}
	}
	return out
}
