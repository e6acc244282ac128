package http

import (
	"net/http"

	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/auth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// StaffHandler serves the admin-only staff management endpoints.
type StaffHandler struct {
	staff  *app.StaffService
	logger zerolog.Logger
}

// NewStaffHandler creates a new staff handler.
func NewStaffHandler(svc *app.StaffService, logger zerolog.Logger) *StaffHandler {
	return &StaffHandler{staff: svc, logger: logger}
}

// Routes registers the staff routes on r.
func (h *StaffHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}/deactivate", h.Deactivate)
	r.Post("/{id}/activate", h.Activate)
}

// CreateStaffRequest is the body of POST /staff.
type CreateStaffRequest struct {
	Username string `json:"username" example:"front_desk"`
	FullName string `json:"full_name" example:"Front Desk"`
	Email    string `json:"email" example:"desk@gym.com"`
	Role     string `json:"role" example:"collaborator"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// List returns all staff accounts.
//
//	@Summary		List staff
//	@Tags			Staff
//	@Produce		json
//	@Success		200	{array}		UserResponse
//	@Failure		403	{object}	ErrorResponseBody	"Admin only"
//	@Security		SessionAuth
//	@Router			/staff [get]
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.staff.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userToResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a staff account.
//
//	@Summary		Create staff
//	@Tags			Staff
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateStaffRequest	true	"Account"
//	@Success		201		{object}	UserResponse
//	@Failure		409		{object}	ErrorResponseBody	"Username or email taken"
//	@Failure		422		{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/staff [post]
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.staff.Create(r.Context(), auth.CreateStaffRequest{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Role:     auth.Role(req.Role),
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToResponse(user))
}

// StaffStatusResponse reports the outcome of an activate or deactivate call.
type StaffStatusResponse struct {
	User    UserResponse `json:"user"`
	Changed bool         `json:"changed"`
}

// Deactivate disables a staff account and ends its sessions.
//
//	@Summary		Deactivate staff
//	@Tags			Staff
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	StaffStatusResponse
//	@Failure		400	{object}	ErrorResponseBody	"Own account"
//	@Failure		404	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/staff/{id}/deactivate [post]
func (h *StaffHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	changed, err := h.staff.Deactivate(r.Context(), actor.ID, id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.writeStatus(w, r, id, changed)
}

// Activate re-enables a staff account.
//
//	@Summary		Activate staff
//	@Tags			Staff
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	StaffStatusResponse
//	@Failure		404	{object}	ErrorResponseBody
//	@Security		SessionAuth
//	@Router			/staff/{id}/activate [post]
func (h *StaffHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	changed, err := h.staff.Activate(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	h.writeStatus(w, r, id, changed)
}

func (h *StaffHandler) writeStatus(w http.ResponseWriter, r *http.Request, id string, changed bool) {
	user, err := h.staff.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, StaffStatusResponse{User: userToResponse(user), Changed: changed})
}
