/*
handlers.go - HTTP API handlers for the mission-control dashboard

PURPOSE:
  Exposes client/line-item/target CRUD and the capacity engine via REST.
  Handles HTTP request/response, JSON serialization, and delegates to the
  planner.

ENDPOINTS:
  Clients:
    GET    /api/clients               List clients
    POST   /api/clients               Create client
    GET    /api/clients/{id}          Get client
    PUT    /api/clients/{id}          Update client
    DELETE /api/clients/{id}          Delete client
    GET    /api/clients/{id}/line-items  Client's line items

  Line items:
    GET    /api/line-items            List line items
    POST   /api/line-items            Create line item
    PUT    /api/line-items/{id}       Update line item
    DELETE /api/line-items/{id}       Delete line item

  Targets:
    GET    /api/targets               Current target map
    PUT    /api/targets               Replace target map

  Capacity:
    GET    /api/capacity              Monthly capacity (?month=&group=)
    GET    /api/forecast              Rolling forecast
                                      (?start=&months=&group=&mode=&team=&member=)

  Snapshots:
    GET    /api/snapshots             Saved forecast runs

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 500: Internal errors

CLOCK:
  The capacity engine takes explicit dates; "defaults to the current
  month" lives only here, behind an injectable clock for tests.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - planner/planner.go: The query layer handlers delegate to
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/airsocial/mission-control/capacity"
	"github.com/airsocial/mission-control/planner"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   planner.Store
	Planner *planner.Planner
	Logger  *zap.Logger

	// DefaultForecastMonths is used when ?months= is omitted.
	DefaultForecastMonths int

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store planner.Store, p *planner.Planner, logger *zap.Logger, forecastMonths int) *Handler {
	if forecastMonths < 1 {
		forecastMonths = 6
	}
	return &Handler{
		Store:                 store,
		Planner:               p,
		Logger:                logger,
		DefaultForecastMonths: forecastMonths,
		now:                   time.Now,
	}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// CreateClient creates a client record.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req SaveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "Client name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	c := planner.Client{ID: capacity.ClientID(req.ID), Name: req.Name, TeamID: req.TeamID}
	if err := h.Store.SaveClient(r.Context(), c); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}
	h.Planner.Invalidate()
	h.writeJSON(w, http.StatusCreated, toClientDTO(c))
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id := capacity.ClientID(chi.URLParam(r, "id"))
	c, err := h.Store.GetClient(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get client", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toClientDTO(*c))
}

// UpdateClient updates a client record.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := capacity.ClientID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetClient(r.Context(), id); err != nil {
		h.writeStoreError(w, "Failed to get client", err)
		return
	}

	var req SaveClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	c := planner.Client{ID: id, Name: req.Name, TeamID: req.TeamID}
	if err := h.Store.SaveClient(r.Context(), c); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save client", err)
		return
	}
	h.Planner.Invalidate()
	h.writeJSON(w, http.StatusOK, toClientDTO(c))
}

// DeleteClient deletes a client record.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := capacity.ClientID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteClient(r.Context(), id); err != nil {
		h.writeStoreError(w, "Failed to delete client", err)
		return
	}
	h.Planner.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// ListClientLineItems returns a client's line items.
func (h *Handler) ListClientLineItems(w http.ResponseWriter, r *http.Request) {
	id := capacity.ClientID(chi.URLParam(r, "id"))
	items, err := h.Store.ListLineItemsByClient(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list line items", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toLineItemDTOs(items))
}

// =============================================================================
// LINE ITEM HANDLERS
// =============================================================================

// ListLineItems returns all line items.
func (h *Handler) ListLineItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListLineItems(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list line items", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toLineItemDTOs(items))
}

// CreateLineItem creates a line item.
func (h *Handler) CreateLineItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.decodeLineItem(w, r, "")
	if !ok {
		return
	}
	if err := h.Store.SaveLineItem(r.Context(), item); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save line item", err)
		return
	}
	h.Planner.Invalidate()
	h.writeJSON(w, http.StatusCreated, toLineItemDTO(item))
}

// UpdateLineItem updates a line item.
func (h *Handler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	id := capacity.LineItemID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetLineItem(r.Context(), id); err != nil {
		h.writeStoreError(w, "Failed to get line item", err)
		return
	}

	item, ok := h.decodeLineItem(w, r, id)
	if !ok {
		return
	}
	if err := h.Store.SaveLineItem(r.Context(), item); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save line item", err)
		return
	}
	h.Planner.Invalidate()
	h.writeJSON(w, http.StatusOK, toLineItemDTO(item))
}

// DeleteLineItem deletes a line item.
func (h *Handler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	id := capacity.LineItemID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteLineItem(r.Context(), id); err != nil {
		h.writeStoreError(w, "Failed to delete line item", err)
		return
	}
	h.Planner.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// decodeLineItem parses and validates a line item body. forceID, when
// non-empty, pins the ID to the URL parameter on updates.
func (h *Handler) decodeLineItem(w http.ResponseWriter, r *http.Request, forceID capacity.LineItemID) (capacity.LineItem, bool) {
	var req SaveLineItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return capacity.LineItem{}, false
	}

	billingType := capacity.BillingType(req.BillingType)
	if billingType != capacity.BillingRecurring && billingType != capacity.BillingOneOff {
		h.writeError(w, http.StatusBadRequest, "billing_type must be recurring or one-off", nil)
		return capacity.LineItem{}, false
	}
	if req.ClientID == "" {
		h.writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return capacity.LineItem{}, false
	}
	if req.Service == "" {
		h.writeError(w, http.StatusBadRequest, "service is required", nil)
		return capacity.LineItem{}, false
	}

	id := forceID
	if id == "" {
		if req.ID != "" {
			id = capacity.LineItemID(req.ID)
		} else {
			id = capacity.LineItemID(uuid.NewString())
		}
	}

	item := capacity.LineItem{
		ID:           id,
		ClientID:     capacity.ClientID(req.ClientID),
		Service:      req.Service,
		BillingType:  billingType,
		MonthlyValue: req.MonthlyValue,
		IsActive:     req.IsActive,
		AssigneeID:   capacity.MemberID(req.AssigneeID),
	}

	if req.StartDate != nil {
		d, err := capacity.ParseDate(*req.StartDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
			return capacity.LineItem{}, false
		}
		item.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := capacity.ParseDate(*req.EndDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD", err)
			return capacity.LineItem{}, false
		}
		item.EndDate = &d
	}
	return item, true
}

// =============================================================================
// TARGET HANDLERS
// =============================================================================

// GetTargets returns the current target map.
func (h *Handler) GetTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.Store.GetTargets(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load targets", err)
		return
	}
	h.writeJSON(w, http.StatusOK, targets)
}

// ReplaceTargets replaces the full target map.
func (h *Handler) ReplaceTargets(w http.ResponseWriter, r *http.Request) {
	var targets capacity.Targets
	if err := json.NewDecoder(r.Body).Decode(&targets); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if err := h.Store.ReplaceTargets(r.Context(), targets); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to replace targets", err)
		return
	}
	h.Planner.Invalidate()
	h.writeJSON(w, http.StatusOK, targets)
}

// =============================================================================
// CAPACITY HANDLERS
// =============================================================================

// GetCapacity returns the MonthlyCapacity for one month.
// Query params: month (YYYY-MM or YYYY-MM-DD, default current month),
// group (service|team|member, default service).
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	month, err := h.parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "month must be YYYY-MM or YYYY-MM-DD", err)
		return
	}
	grouping := parseGrouping(r.URL.Query().Get("group"))

	result, err := h.Planner.Capacity(r.Context(), month, grouping)
	if err != nil {
		h.writePlannerError(w, "Failed to compute capacity", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMonthlyCapacityDTO(result))
}

// GetForecast returns the rolling forecast.
// Query params: start (default current month), months (default from
// config), group (default service), mode (amounts|percent, default
// amounts), team, member (mutually exclusive scopes).
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := h.parseMonth(q.Get("start"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "start must be YYYY-MM or YYYY-MM-DD", err)
		return
	}

	months := h.DefaultForecastMonths
	if raw := q.Get("months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months < 1 || months > 24 {
			h.writeError(w, http.StatusBadRequest, "months must be an integer between 1 and 24", err)
			return
		}
	}

	mode := capacity.ModeAmounts
	if q.Get("mode") == string(capacity.ModePercent) {
		mode = capacity.ModePercent
	}

	if q.Get("team") != "" && q.Get("member") != "" {
		h.writeError(w, http.StatusBadRequest, "team and member scopes are mutually exclusive", nil)
		return
	}

	points, err := h.Planner.Forecast(r.Context(), planner.ForecastQuery{
		Grouping:   parseGrouping(q.Get("group")),
		Start:      start,
		MonthCount: months,
		Mode:       mode,
		TeamID:     q.Get("team"),
		MemberID:   capacity.MemberID(q.Get("member")),
	})
	if err != nil {
		h.writePlannerError(w, "Failed to compute forecast", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toForecastPointDTOs(points))
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// ListSnapshots returns saved forecast runs, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	snapshots, err := h.Store.ListSnapshots(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list snapshots", err)
		return
	}
	dtos := make([]SnapshotDTO, len(snapshots))
	for i, s := range snapshots {
		dtos[i] = toSnapshotDTO(s)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// parseMonth accepts YYYY-MM or YYYY-MM-DD; empty defaults to the
// current calendar month.
func (h *Handler) parseMonth(raw string) (capacity.Date, error) {
	if raw == "" {
		return capacity.StartOfMonth(capacity.DateOf(h.now())), nil
	}
	if t, err := time.Parse("2006-01", raw); err == nil {
		return capacity.DateOf(t), nil
	}
	return capacity.ParseDate(raw)
}

func parseGrouping(raw string) planner.GroupingMode {
	if raw == "" {
		return planner.GroupByService
	}
	return planner.GroupingMode(raw)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.Logger.Warn(msg, zap.Error(err), zap.Int("status", status))
	}
	h.writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeStoreError maps store errors to 404 vs 500.
func (h *Handler) writeStoreError(w http.ResponseWriter, msg string, err error) {
	if planner.IsNotFound(err) {
		h.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
		return
	}
	h.writeError(w, http.StatusInternalServerError, msg, err)
}

// writePlannerError maps planner errors to 400 vs 500.
func (h *Handler) writePlannerError(w http.ResponseWriter, msg string, err error) {
	if planner.IsClientError(err) {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
		return
	}
	h.writeError(w, http.StatusInternalServerError, msg, err)
}
