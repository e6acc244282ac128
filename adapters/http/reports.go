package http

import (
	"net/http"
	"time"

	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/rs/zerolog"
)

// ReportHandler serves the dashboard and delinquency report.
type ReportHandler struct {
	dashboard *app.DashboardService
	logger    zerolog.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *app.DashboardService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{dashboard: svc, logger: logger}
}

// DelinquentResponse is one line of the delinquency report.
type DelinquentResponse struct {
	Member        MemberResponse   `json:"member"`
	MonthsOverdue int              `json:"months_overdue"`
	AmountDue     string           `json:"amount_due"`
	DaysPastDue   int              `json:"days_past_due"`
	LastPayment   *PaymentResponse `json:"last_payment,omitempty"`
}

// DelinquencyReport wraps the report with its reference date.
type DelinquencyReport struct {
	Date    string               `json:"date"`
	Members []DelinquentResponse `json:"members"`
}

// Delinquents lists active members with unpaid periods, most months first.
//
//	@Summary		Delinquency report
//	@Tags			Reports
//	@Produce		json
//	@Param			date	query		string	false	"Reference date (YYYY-MM-DD), default today"
//	@Success		200		{object}	DelinquencyReport
//	@Security		SessionAuth
//	@Router			/reports/delinquents [get]
func (h *ReportHandler) Delinquents(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refDate(w, r)
	if !ok {
		return
	}

	list, err := h.dashboard.DelinquentsAt(r.Context(), ref)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := DelinquencyReport{Date: ref.Format(dateLayout), Members: make([]DelinquentResponse, 0, len(list))}
	for _, d := range list {
		item := DelinquentResponse{
			Member:        memberToResponse(d.Member),
			MonthsOverdue: d.MonthsOverdue,
			AmountDue:     d.AmountDue.StringFixed(2),
			DaysPastDue:   d.DaysPastDue,
		}
		if d.LastPayment != nil {
			p := paymentToResponse(*d.LastPayment)
			item.LastPayment = &p
		}
		resp.Members = append(resp.Members, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// OverdueResponse is an overdue member on the dashboard.
type OverdueResponse struct {
	Member        MemberResponse `json:"member"`
	MonthsOverdue int            `json:"months_overdue"`
	AmountDue     string         `json:"amount_due"`
}

// DashboardResponse summarizes the current period.
type DashboardResponse struct {
	Period        string            `json:"period" example:"2024-03"`
	Month         string            `json:"month" example:"March"`
	ActiveMembers int               `json:"active_members"`
	PaidCount     int               `json:"paid_count"`
	OverdueCount  int               `json:"overdue_count"`
	AwaitingCount int               `json:"awaiting_count"`
	Expected      string            `json:"expected"`
	Received      string            `json:"received"`
	Pending       string            `json:"pending"`
	PercentPaid   float64           `json:"percent_paid"`
	TotalArrears  string            `json:"total_arrears"`
	Paid          []MemberResponse  `json:"paid"`
	Overdue       []OverdueResponse `json:"overdue"`
}

func statsToResponse(s dashboard.Stats) DashboardResponse {
	resp := DashboardResponse{
		Period:        s.Period.String(),
		Month:         dashboard.MonthName(s.Period),
		ActiveMembers: s.ActiveMembers,
		PaidCount:     len(s.Paid),
		OverdueCount:  len(s.Overdue),
		AwaitingCount: s.Awaiting,
		Expected:      s.Expected.StringFixed(2),
		Received:      s.Received.StringFixed(2),
		Pending:       s.Pending.StringFixed(2),
		PercentPaid:   s.PercentPaid,
		TotalArrears:  s.TotalArrears.StringFixed(2),
		Paid:          make([]MemberResponse, 0, len(s.Paid)),
		Overdue:       make([]OverdueResponse, 0, len(s.Overdue)),
	}
	for _, row := range s.Paid {
		resp.Paid = append(resp.Paid, memberToResponse(row.Member))
	}
	for _, row := range s.Overdue {
		resp.Overdue = append(resp.Overdue, OverdueResponse{
			Member:        memberToResponse(row.Member),
			MonthsOverdue: row.Standing.Arrears.Months,
			AmountDue:     row.Standing.Arrears.Amount.StringFixed(2),
		})
	}
	return resp
}

// Dashboard returns the statistics of the current period.
//
//	@Summary		Dashboard
//	@Tags			Reports
//	@Produce		json
//	@Param			date	query		string	false	"Reference date (YYYY-MM-DD), default today"
//	@Success		200		{object}	DashboardResponse
//	@Failure		403		{object}	ErrorResponseBody	"Admin only"
//	@Security		SessionAuth
//	@Router			/dashboard [get]
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.refDate(w, r)
	if !ok {
		return
	}

	stats, err := h.dashboard.StatsAt(r.Context(), ref)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(stats))
}

// refDate reads the optional date query parameter.
func (h *ReportHandler) refDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		return h.dashboard.Today(), true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must use the YYYY-MM-DD format")
		return time.Time{}, false
	}
	return t, true
}
