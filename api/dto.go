/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY FIELDS:
  Amounts marshal through decimal.Decimal (quoted decimal strings), so
  the frontend receives "1600" rather than a lossy float.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/airsocial/mission-control/capacity"
	"github.com/airsocial/mission-control/planner"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"team_id,omitempty"`
}

// SaveClientRequest creates or updates a client. ID is generated when
// omitted on create.
type SaveClientRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	TeamID string `json:"team_id,omitempty"`
}

// LineItemDTO represents a contract line item in API responses.
type LineItemDTO struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"client_id"`
	Service      string          `json:"service"`
	BillingType  string          `json:"billing_type"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
	IsActive     bool            `json:"is_active"`
	StartDate    *string         `json:"start_date,omitempty"`
	EndDate      *string         `json:"end_date,omitempty"`
	AssigneeID   string          `json:"assignee_id,omitempty"`
}

// SaveLineItemRequest creates or updates a line item. Dates are ISO
// (2006-01-02); MonthlyValue is a decimal string or number.
type SaveLineItemRequest struct {
	ID           string          `json:"id,omitempty"`
	ClientID     string          `json:"client_id"`
	Service      string          `json:"service"`
	BillingType  string          `json:"billing_type"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
	IsActive     bool            `json:"is_active"`
	StartDate    *string         `json:"start_date,omitempty"`
	EndDate      *string         `json:"end_date,omitempty"`
	AssigneeID   string          `json:"assignee_id,omitempty"`
}

// GroupCapacityDTO is one aggregation row.
type GroupCapacityDTO struct {
	Key     string          `json:"key"`
	Actual  decimal.Decimal `json:"actual"`
	Target  decimal.Decimal `json:"target"`
	Percent decimal.Decimal `json:"percent"`
	Clients []string        `json:"clients"`
}

// MonthlyCapacityDTO is the full capacity result for one month.
type MonthlyCapacityDTO struct {
	Month        string             `json:"month"`
	Groups       []GroupCapacityDTO `json:"groups"`
	TotalActual  decimal.Decimal    `json:"total_actual"`
	TotalTarget  decimal.Decimal    `json:"total_target"`
	TotalPercent decimal.Decimal    `json:"total_percent"`
}

// BreakdownEntryDTO is one mode-scaled breakdown value.
type BreakdownEntryDTO struct {
	Key   string          `json:"key"`
	Value decimal.Decimal `json:"value"`
}

// ForecastPointDTO is one month on the forecast timeline.
type ForecastPointDTO struct {
	Month     string              `json:"month"`
	Total     decimal.Decimal     `json:"total"`
	Breakdown []BreakdownEntryDTO `json:"breakdown"`
	Capacity  MonthlyCapacityDTO  `json:"capacity"`
}

// SnapshotDTO represents a persisted forecast run.
type SnapshotDTO struct {
	ID         string `json:"id"`
	Grouping   string `json:"grouping"`
	Mode       string `json:"mode"`
	StartMonth string `json:"start_month"`
	MonthCount int    `json:"month_count"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	TakenAt    string `json:"taken_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toClientDTO(c planner.Client) ClientDTO {
	return ClientDTO{ID: string(c.ID), Name: c.Name, TeamID: c.TeamID}
}

func toLineItemDTO(item capacity.LineItem) LineItemDTO {
	dto := LineItemDTO{
		ID:           string(item.ID),
		ClientID:     string(item.ClientID),
		Service:      item.Service,
		BillingType:  string(item.BillingType),
		MonthlyValue: item.MonthlyValue,
		IsActive:     item.IsActive,
		AssigneeID:   string(item.AssigneeID),
	}
	if item.StartDate != nil {
		s := item.StartDate.String()
		dto.StartDate = &s
	}
	if item.EndDate != nil {
		e := item.EndDate.String()
		dto.EndDate = &e
	}
	return dto
}

func toLineItemDTOs(items []capacity.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toLineItemDTO(item)
	}
	return dtos
}

func toMonthlyCapacityDTO(mc capacity.MonthlyCapacity) MonthlyCapacityDTO {
	groups := make([]GroupCapacityDTO, len(mc.Groups))
	for i, g := range mc.Groups {
		clients := make([]string, len(g.Clients))
		for j, c := range g.Clients {
			clients[j] = string(c)
		}
		groups[i] = GroupCapacityDTO{
			Key:     g.Key,
			Actual:  g.Actual,
			Target:  g.Target,
			Percent: g.Percent,
			Clients: clients,
		}
	}
	return MonthlyCapacityDTO{
		Month:        mc.Month.String(),
		Groups:       groups,
		TotalActual:  mc.TotalActual,
		TotalTarget:  mc.TotalTarget,
		TotalPercent: mc.TotalPercent,
	}
}

func toForecastPointDTOs(points []capacity.ForecastPoint) []ForecastPointDTO {
	dtos := make([]ForecastPointDTO, len(points))
	for i, p := range points {
		breakdown := make([]BreakdownEntryDTO, len(p.Breakdown))
		for j, b := range p.Breakdown {
			breakdown[j] = BreakdownEntryDTO{Key: b.Key, Value: b.Value}
		}
		dtos[i] = ForecastPointDTO{
			Month:     p.Month.String(),
			Total:     p.Total,
			Breakdown: breakdown,
			Capacity:  toMonthlyCapacityDTO(p.Capacity),
		}
	}
	return dtos
}

func toSnapshotDTO(s planner.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:         s.ID,
		Grouping:   string(s.Grouping),
		Mode:       string(s.Mode),
		StartMonth: s.StartMonth.String(),
		MonthCount: s.MonthCount,
		Status:     s.Status,
		Error:      s.Error,
		TakenAt:    s.TakenAt.Format(time.RFC3339),
	}
}
