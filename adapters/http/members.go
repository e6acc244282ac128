package http

import (
	"context"
	"net/http"
	"time"

	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// MemberHandler serves the member and payment endpoints.
type MemberHandler struct {
	members  *app.MemberService
	payments *app.PaymentService
	logger   zerolog.Logger
}

// NewMemberHandler creates a new member handler.
func NewMemberHandler(members *app.MemberService, payments *app.PaymentService, logger zerolog.Logger) *MemberHandler {
	return &MemberHandler{members: members, payments: payments, logger: logger}
}

// Routes registers the member routes on r.
func (h *MemberHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/deactivate", h.Deactivate)
	r.Post("/{id}/activate", h.Activate)
	r.Get("/{id}/standing", h.Standing)
	r.Get("/{id}/payments", h.History)
	r.Post("/{id}/payments", h.RecordPayment)
}

// MemberRequest is the body of member create and update calls.
type MemberRequest struct {
	Name       string          `json:"name" example:"Ana Souza"`
	Phone      string          `json:"phone" example:"(81) 99999-1000"`
	MonthlyFee decimal.Decimal `json:"monthly_fee" swaggertype:"string" example:"100.00"`
	DueDay     int             `json:"due_day" example:"10"`
}

func (req MemberRequest) registration() member.Registration {
	return member.Registration{
		Name:       req.Name,
		Phone:      req.Phone,
		MonthlyFee: req.MonthlyFee,
		DueDay:     req.DueDay,
	}
}

// MemberResponse represents a member in API responses.
type MemberResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	MonthlyFee string `json:"monthly_fee"`
	DueDay     int    `json:"due_day"`
	EnrolledAt string `json:"enrolled_at"`
	Active     bool   `json:"active"`
}

func memberToResponse(m billing.Member) MemberResponse {
	return MemberResponse{
		ID:         m.ID,
		Name:       m.Name,
		Phone:      m.Phone,
		MonthlyFee: m.MonthlyFee.StringFixed(2),
		DueDay:     m.DueDay,
		EnrolledAt: m.EnrolledAt.Format(dateLayout),
		Active:     m.Active,
	}
}

// PaymentResponse represents a payment in API responses.
type PaymentResponse struct {
	ID       string `json:"id"`
	MemberID string `json:"member_id"`
	PaidAt   string `json:"paid_at"`
	Amount   string `json:"amount"`
	Period   string `json:"period" example:"2024-03"`
	Month    string `json:"month" example:"March"`
	Notes    string `json:"notes,omitempty"`
}

func paymentToResponse(p billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:       p.ID,
		MemberID: p.MemberID,
		PaidAt:   p.PaidAt.Format(dateLayout),
		Amount:   p.Amount.StringFixed(2),
		Period:   p.Period.String(),
		Month:    dashboard.MonthName(p.Period),
		Notes:    p.Notes,
	}
}

// StandingResponse is a member's billing standing.
type StandingResponse struct {
	Member        MemberResponse   `json:"member"`
	Status        string           `json:"status" example:"overdue"`
	MonthsOverdue int              `json:"months_overdue"`
	AmountDue     string           `json:"amount_due"`
	UnpaidPeriods []string         `json:"unpaid_periods"`
	DueDate       string           `json:"due_date"`
	NextDueDate   string           `json:"next_due_date"`
	DaysPastDue   int              `json:"days_past_due"`
	PaidCurrent   bool             `json:"paid_current"`
	LastPayment   *PaymentResponse `json:"last_payment,omitempty"`
}

func rowToResponse(row dashboard.Row) StandingResponse {
	s := row.Standing
	periods := make([]string, 0, len(s.Arrears.Periods))
	for _, p := range s.Arrears.Periods {
		periods = append(periods, p.String())
	}

	resp := StandingResponse{
		Member:        memberToResponse(row.Member),
		Status:        string(s.Status),
		MonthsOverdue: s.Arrears.Months,
		AmountDue:     s.Arrears.Amount.StringFixed(2),
		UnpaidPeriods: periods,
		DueDate:       s.DueDate.Format(dateLayout),
		NextDueDate:   s.NextDueDate.Format(dateLayout),
		DaysPastDue:   s.DaysPastDue,
		PaidCurrent:   s.PaidCurrent,
	}
	if s.LastPayment != nil {
		p := paymentToResponse(*s.LastPayment)
		resp.LastPayment = &p
	}
	return resp
}

// CreateMemberResponse is returned after registering a member.
type CreateMemberResponse struct {
	Member MemberResponse `json:"member"`
	// Warnings lists active members registered under the same name.
	Warnings []MemberResponse `json:"same_name,omitempty"`
}

// List returns members with their standing.
//
//	@Summary		List members
//	@Tags			Members
//	@Produce		json
//	@Param			q		query		string	false	"Name contains"
//	@Param			status	query		string	false	"all, current, awaiting, overdue or inactive"
//	@Success		200		{array}		StandingResponse
//	@Security		SessionAuth
//	@Router			/members [get]
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.members.List(r.Context(), app.ListQuery{
		Search: r.URL.Query().Get("q"),
		Filter: dashboard.ParseFilter(r.URL.Query().Get("status")),
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]StandingResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, rowToResponse(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create registers a new member.
//
//	@Summary		Register member
//	@Tags			Members
//	@Accept			json
//	@Produce		json
//	@Param			request	body		MemberRequest	true	"Member"
//	@Success		201		{object}	CreateMemberResponse
//	@Failure		409		{object}	ErrorResponseBody	"Phone in use"
//	@Failure		422		{object}	ErrorResponseBody	"Invalid fields"
//	@Security		SessionAuth
//	@Router			/members [post]
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.members.Register(r.Context(), req.registration())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := CreateMemberResponse{Member: memberToResponse(result.Member)}
	for _, m := range result.SameName {
		resp.Warnings = append(resp.Warnings, memberToResponse(m))
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Get returns one member.
//
//	@Summary		Get member
//	@Tags			Members
//	@Produce		json
//	@Param			id	path		string	true	"Member ID"
//	@Success		200	{object}	MemberResponse
//	@Failure		404	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/members/{id} [get]
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.members.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, memberToResponse(m))
}

// Update edits a member.
//
//	@Summary		Update member
//	@Tags			Members
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Member ID"
//	@Param			request	body		MemberRequest	true	"Member"
//	@Success		200		{object}	MemberResponse
//	@Failure		404		{object}	ErrorResponseBody
//	@Failure		409		{object}	ErrorResponseBody
//	@Failure		422		{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/members/{id} [put]
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.members.Update(r.Context(), chi.URLParam(r, "id"), req.registration())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, memberToResponse(m))
}

// StatusChangeResponse reports the outcome of an activate or deactivate call.
type StatusChangeResponse struct {
	Member  MemberResponse `json:"member"`
	Changed bool           `json:"changed"`
}

// Deactivate flags a member inactive.
//
//	@Summary		Deactivate member
//	@Tags			Members
//	@Produce		json
//	@Param			id	path		string	true	"Member ID"
//	@Success		200	{object}	StatusChangeResponse
//	@Failure		404	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/members/{id}/deactivate [post]
func (h *MemberHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.members.Deactivate)
}

// Activate flags a member active again.
//
//	@Summary		Activate member
//	@Tags			Members
//	@Produce		json
//	@Param			id	path		string	true	"Member ID"
//	@Success		200	{object}	StatusChangeResponse
//	@Failure		404	{object}	ErrorResponseBody
//	@Failure		409	{object}	ErrorResponseBody	"Phone in use"
//	@Security		SessionAuth
//	@Router			/members/{id}/activate [post]
func (h *MemberHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.members.Activate)
}

func (h *MemberHandler) changeStatus(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, id string) (bool, error)) {
	id := chi.URLParam(r, "id")
	changed, err := change(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	m, err := h.members.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusChangeResponse{Member: memberToResponse(m), Changed: changed})
}

// Standing returns a member's billing standing today.
//
//	@Summary		Member standing
//	@Tags			Members
//	@Produce		json
//	@Param			id	path		string	true	"Member ID"
//	@Success		200	{object}	StandingResponse
//	@Failure		404	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/members/{id}/standing [get]
func (h *MemberHandler) Standing(w http.ResponseWriter, r *http.Request) {
	row, err := h.members.Standing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rowToResponse(row))
}

// History returns a member's payments, latest first.
//
//	@Summary		Payment history
//	@Tags			Payments
//	@Produce		json
//	@Param			id	path		string	true	"Member ID"
//	@Success		200	{array}		PaymentResponse
//	@Failure		404	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/members/{id}/payments [get]
func (h *MemberHandler) History(w http.ResponseWriter, r *http.Request) {
	payments, err := h.members.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, paymentToResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// PaymentRequest is the body of POST /members/{id}/payments.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	// PaidAt defaults to today (YYYY-MM-DD).
	PaidAt string `json:"paid_at,omitempty" example:"2024-03-08"`
	// Period defaults to the month of PaidAt (YYYY-MM).
	Period string `json:"period,omitempty" example:"2024-03"`
	Notes  string `json:"notes,omitempty"`
}

// RecordPayment stores a payment for a member.
//
//	@Summary		Record payment
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Member ID"
//	@Param			request	body		PaymentRequest	true	"Payment"
//	@Success		201		{object}	PaymentResponse
//	@Failure		404		{object}	ErrorResponseBody
//	@Failure		422		{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/members/{id}/payments [post]
func (h *MemberHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := app.PaymentRequest{
		MemberID: chi.URLParam(r, "id"),
		Amount:   req.Amount,
		Notes:    req.Notes,
	}

	fields := make(map[string]string)
	if req.PaidAt != "" {
		t, err := time.Parse(dateLayout, req.PaidAt)
		if err != nil {
			fields["paid_at"] = "Use the YYYY-MM-DD format"
		}
		in.PaidAt = t
	}
	if req.Period != "" {
		p, err := billing.ParsePeriod(req.Period)
		if err != nil {
			fields["period"] = "Use the YYYY-MM format"
		}
		in.Period = &p
	}
	if len(fields) > 0 {
		writeServiceError(w, h.logger, &app.ValidationError{Fields: fields})
		return
	}

	p, err := h.payments.Record(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentToResponse(p))
}
