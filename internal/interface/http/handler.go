package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/surgecast/internal/domain/arearisk"
	"github.com/yanqian/surgecast/internal/domain/auth"
	"github.com/yanqian/surgecast/internal/domain/facility"
	"github.com/yanqian/surgecast/internal/domain/history"
	"github.com/yanqian/surgecast/pkg/metrics"
	"github.com/yanqian/surgecast/pkg/util"
)

// AlertStream is the websocket endpoint that pushes alert events to dashboards.
type AlertStream interface {
	http.Handler
	Count() int
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	facilitySvc facility.Service
	areaSvc     arearisk.Service
	historySvc  history.Service
	authSvc     auth.Service
	alerts      AlertStream
	registry    *metrics.Registry
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	facilitySvc facility.Service,
	areaSvc arearisk.Service,
	historySvc history.Service,
	authSvc auth.Service,
	alerts AlertStream,
	registry *metrics.Registry,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		facilitySvc: facilitySvc,
		areaSvc:     areaSvc,
		historySvc:  historySvc,
		authSvc:     authSvc,
		alerts:      alerts,
		registry:    registry,
		logger:      logger.With("component", "http.handler"),
	}
}

// Predict returns the facility alert assessment for one feature vector.
func (h *Handler) Predict(c *gin.Context) {
	var req facility.Features
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.facilitySvc.Predict(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePrediction predicts and queues the outcome for history.
func (h *Handler) CreatePrediction(c *gin.Context) {
	var req facility.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.facilitySvc.PredictAndRecord(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// PredictAreaRisk scores an area. An empty body scores the default scenario.
func (h *Handler) PredictAreaRisk(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	var req arearisk.Factors
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
			return
		}
	}

	resp, err := h.areaSvc.Assess(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPredictions returns a page of prediction history.
func (h *Handler) ListPredictions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	page, err := h.historySvc.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPrediction returns one stored prediction.
func (h *Handler) GetPrediction(c *gin.Context) {
	rec, err := h.historySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeletePrediction removes a stored prediction.
func (h *Handler) DeletePrediction(c *gin.Context) {
	if err := h.historySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "prediction deleted"})
}

// Analytics summarises recent predictions.
func (h *Handler) Analytics(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "days must be an integer", err))
			return
		}
		days = parsed
	}

	resp, err := h.historySvc.Analytics(c.Request.Context(), days)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Login exchanges operator credentials for tokens.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues a new token pair from a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	subscribers := 0
	if h.alerts != nil {
		subscribers = h.alerts.Count()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"timestamp":         util.NowUTC(),
		"alert_subscribers": subscribers,
	})
}

// Metrics renders the counters in Prometheus text format.
func (h *Handler) Metrics(c *gin.Context) {
	c.Header("Content-Type", string(metrics.ContentType()))
	c.Status(http.StatusOK)
	if err := h.registry.Write(c.Writer); err != nil {
		h.logger.Error("write metrics failed", "error", err)
	}
}

func parseFilter(c *gin.Context) (history.Filter, error) {
	filter := history.Filter{AlertLevel: strings.TrimSpace(c.Query("alert_level"))}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return history.Filter{}, err
	}
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return history.Filter{}, err
	}
	if raw := c.Query("start_date"); raw != "" {
		start, _, err := parseDate(raw)
		if err != nil {
			return history.Filter{}, err
		}
		filter.Start = &start
	}
	if raw := c.Query("end_date"); raw != "" {
		end, dateOnly, err := parseDate(raw)
		if err != nil {
			return history.Filter{}, err
		}
		if dateOnly {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		filter.End = &end
	}
	return filter, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &queryError{key: key, reason: "must be an integer"}
	}
	return v, nil
}

// parseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates. A bare end
// date covers the whole day.
func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, &queryError{key: "date", reason: "must be RFC 3339 or YYYY-MM-DD, got " + strconv.Quote(raw)}
}

type queryError struct {
	key    string
	reason string
}

func (e *queryError) Error() string {
	return e.key + " " + e.reason
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
