package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/txpolicies/core"
	"github.com/yourusername/txpolicies/logging"
	"github.com/yourusername/txpolicies/metrics"
	"github.com/yourusername/txpolicies/middleware"
	"github.com/yourusername/txpolicies/pkg/txpolicies"
)

// PolicyTable is the part of *txpolicies.PolicyStore the admin API uses
type PolicyTable interface {
	Resolve(addr core.HardwareAddress) (core.Policy, core.Source)
	Supported(addr core.HardwareAddress) core.Policy
	Upsert(addr core.HardwareAddress, rates []int, opts ...txpolicies.InsertOption) (core.Policy, error)
	Remove(addr core.HardwareAddress) error
	SetDefault(p core.Policy) error
	Default() core.Policy
	Entries() []txpolicies.Entry
	Dump(w io.Writer) error
	ExecInsert(s string) error
	ExecRemove(s string) error
}

// MetricsProvider defines the interface for getting metrics
type MetricsProvider interface {
	GetSnapshot() *metrics.Snapshot
}

// Handler serves the administrative interface of a policy table
type Handler struct {
	table  PolicyTable
	logger *slog.Logger
}

// NewHandler creates a new API handler
func NewHandler(table PolicyTable, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{table: table, logger: logger}
}

// GetPolicies handles GET /policies with the text dump
func (h *Handler) GetPolicies(c *gin.Context) {
	var sb strings.Builder
	if err := h.table.Dump(&sb); err != nil {
		h.sendError(c, http.StatusInternalServerError, "dump_failed", err.Error())
		return
	}
	c.String(http.StatusOK, sb.String())
}

// Insert handles POST /insert with a "<address> <rate>..." body
func (h *Handler) Insert(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request", "Unable to read body")
		return
	}

	if err := h.table.ExecInsert(string(body)); err != nil {
		h.sendMutationError(c, txpolicies.OpInsert, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove handles POST /remove with an "<address>" body
func (h *Handler) Remove(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request", "Unable to read body")
		return
	}

	if err := h.table.ExecRemove(string(body)); err != nil {
		h.sendMutationError(c, txpolicies.OpRemove, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPolicies handles GET /api/v1/policies
func (h *Handler) ListPolicies(c *gin.Context) {
	entries := h.table.Entries()

	resp := TableResponse{
		Default: h.table.Default(),
		Entries: make([]PolicyResponse, 0, len(entries)),
		Count:   len(entries),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, PolicyResponse{
			Address: e.Address.String(),
			Policy:  e.Policy,
			Source:  core.SourceStation.String(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// GetPolicy handles GET /api/v1/policies/:addr with fallback to the default
func (h *Handler) GetPolicy(c *gin.Context) {
	addr, ok := h.parseAddress(c)
	if !ok {
		return
	}

	p, src := h.table.Resolve(addr)
	c.JSON(http.StatusOK, PolicyResponse{
		Address: addr.String(),
		Policy:  p,
		Source:  src.String(),
	})
}

// GetSupported handles GET /api/v1/policies/:addr/supported
func (h *Handler) GetSupported(c *gin.Context) {
	addr, ok := h.parseAddress(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, PolicyResponse{
		Address: addr.String(),
		Policy:  h.table.Supported(addr),
		Source:  "supported",
	})
}

// PutPolicy handles PUT /api/v1/policies/:addr
func (h *Handler) PutPolicy(c *gin.Context) {
	addr, ok := h.parseAddress(c)
	if !ok {
		return
	}

	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	stored, err := h.table.Upsert(addr, req.Rates,
		txpolicies.WithNoAck(req.NoAck),
		txpolicies.WithRateSelection(req.RateSelection),
		txpolicies.WithRTSCTSThreshold(req.threshold()),
	)
	if err != nil {
		h.sendMutationError(c, txpolicies.OpInsert, err)
		return
	}

	c.JSON(http.StatusOK, PolicyResponse{
		Address: addr.String(),
		Policy:  stored,
		Source:  core.SourceStation.String(),
	})
}

// DeletePolicy handles DELETE /api/v1/policies/:addr
func (h *Handler) DeletePolicy(c *gin.Context) {
	addr, ok := h.parseAddress(c)
	if !ok {
		return
	}

	if err := h.table.Remove(addr); err != nil {
		h.sendMutationError(c, txpolicies.OpRemove, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PutDefault handles PUT /api/v1/default
func (h *Handler) PutDefault(c *gin.Context) {
	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	p := core.Policy{
		Rates:           req.Rates,
		NoAck:           req.NoAck,
		RateSelection:   req.RateSelection,
		RTSCTSThreshold: req.threshold(),
	}
	if err := h.table.SetDefault(p); err != nil {
		h.sendMutationError(c, txpolicies.OpSetDefault, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) parseAddress(c *gin.Context) (core.HardwareAddress, bool) {
	addr, err := core.ParseHardwareAddress(c.Param("addr"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_address", err.Error())
		return core.HardwareAddress{}, false
	}
	return addr, true
}

// sendMutationError maps store errors to status codes
func (h *Handler) sendMutationError(c *gin.Context, op string, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, txpolicies.ErrMalformedCommand):
		status, code = http.StatusBadRequest, "malformed_command"
	case errors.Is(err, txpolicies.ErrInvalidAddress):
		status, code = http.StatusBadRequest, "invalid_address"
	case errors.Is(err, txpolicies.ErrInvalidPolicy):
		status, code = http.StatusBadRequest, "invalid_policy"
	case errors.Is(err, txpolicies.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, txpolicies.ErrPersistFailed):
		status, code = http.StatusServiceUnavailable, "persist_failed"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}

	h.logger.Warn("admin mutation rejected",
		logging.FieldRequestID, middleware.GetRequestID(c),
		"op", op,
		logging.FieldError, err,
	)
	h.sendError(c, status, code, err.Error())
}

func (h *Handler) sendError(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// MetricsHandler handles GET /metrics requests
type MetricsHandler struct {
	provider MetricsProvider
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(provider MetricsProvider) *MetricsHandler {
	return &MetricsHandler{provider: provider}
}

// GetMetrics handles the metrics endpoint
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.GetSnapshot())
}
