// Package api mounts the HTTP surface: auth, procedure CRUD, and the
// acknowledgment/stats endpoints backing the dashboard cards.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Alcatecable/Procedure/internal/authn"
	"github.com/Alcatecable/Procedure/internal/dashboard"
	"github.com/Alcatecable/Procedure/internal/store"
	"github.com/Alcatecable/Procedure/pkg/httpx"
)

type ProcedureStore interface {
	CreateProcedure(ctx context.Context, p store.Procedure) error
	UpdateProcedure(ctx context.Context, p store.Procedure) error
	GetProcedure(ctx context.Context, procedureID string) (store.Procedure, error)
	ListProcedures(ctx context.Context) ([]store.Procedure, error)
	InsertAcknowledgment(ctx context.Context, ack store.Acknowledgment) (bool, error)
	ProcedureStats(ctx context.Context, procedureID, userID string) (store.Stats, error)
	GetProfile(ctx context.Context, profileID string) (store.Profile, error)
}

type SessionProvider interface {
	SignUp(ctx context.Context, email, password, fullName, role string) (store.Profile, error)
	SignIn(ctx context.Context, email, password string) (authn.Session, store.Profile, error)
	SignOut(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (authn.Principal, error)
}

type Handler struct {
	Store ProcedureStore
	Auth  SessionProvider
}

func NewHandler(st ProcedureStore, auth SessionProvider) *Handler {
	return &Handler{Store: st, Auth: auth}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/auth/v1", func(api chi.Router) {
		api.Post("/signup", h.handleSignUp)
		api.Post("/signin", h.handleSignIn)
		api.Post("/signout", h.handleSignOut)
		api.Get("/me", h.handleMe)
	})

	r.Route("/procedures", func(api chi.Router) {
		api.Get("/", h.handleList)
		api.Post("/", h.handleCreate)
		api.Get("/{procedure_id}", h.handleGet)
		api.Put("/{procedure_id}", h.handleUpdate)
		api.Get("/{procedure_id}/stats", h.handleStats)
		api.Post("/{procedure_id}/acknowledgments", h.handleAcknowledge)
	})

	r.Get("/meta/source-suggestions", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id": httpx.NewRequestID(),
			"sources":    store.SourceSuggestions,
		})
	})
}

// principal resolves the bearer token or writes the 401 itself.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (authn.Principal, bool) {
	token, ok := authn.ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		httpx.WriteError(w, 401, "UNAUTHORIZED", "bearer token required", nil)
		return authn.Principal{}, false
	}
	pr, err := h.Auth.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, authn.ErrUnauthorized) {
			httpx.WriteError(w, 401, "UNAUTHORIZED", "invalid or expired session", nil)
			return authn.Principal{}, false
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return authn.Principal{}, false
	}
	return pr, true
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) (authn.Principal, bool) {
	pr, ok := h.principal(w, r)
	if !ok {
		return authn.Principal{}, false
	}
	if !pr.IsAdmin() {
		httpx.WriteError(w, 403, "FORBIDDEN", "admin role required", nil)
		return authn.Principal{}, false
	}
	return pr, true
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	fields := []httpx.FieldError{}
	if !isSaneEmail(req.Email) {
		fields = append(fields, httpx.FieldError{Field: "email", Message: "email is invalid"})
	}
	if len(req.Password) < 6 {
		fields = append(fields, httpx.FieldError{Field: "password", Message: "password must be at least 6 characters"})
	}
	if strings.TrimSpace(req.FullName) == "" {
		fields = append(fields, httpx.FieldError{Field: "full_name", Message: "full name is required"})
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = store.RoleStaff
	}
	if !store.ValidRole(role) {
		fields = append(fields, httpx.FieldError{Field: "role", Message: "role must be admin or staff"})
	}
	if len(fields) > 0 {
		httpx.WriteFieldErrors(w, fields)
		return
	}

	profile, err := h.Auth.SignUp(r.Context(), req.Email, req.Password, req.FullName, role)
	if err != nil {
		if errors.Is(err, authn.ErrEmailTaken) {
			httpx.WriteError(w, 409, "EMAIL_TAKEN", err.Error(), nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	signupsTotal.Inc()
	// No session is issued here; the client switches to sign-in mode.
	httpx.WriteJSON(w, 201, map[string]any{
		"request_id": httpx.NewRequestID(),
		"profile":    profile,
		"message":    "Account created! Please sign in.",
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	sess, profile, err := h.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authn.ErrInvalidCredentials) {
			signinsTotal.WithLabelValues("rejected").Inc()
			httpx.WriteError(w, 401, "INVALID_CREDENTIALS", err.Error(), nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	signinsTotal.WithLabelValues("ok").Inc()
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"session":    sess,
		"profile":    profile,
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, ok := authn.ParseBearer(r.Header.Get("Authorization"))
	if !ok {
		httpx.WriteError(w, 401, "UNAUTHORIZED", "bearer token required", nil)
		return
	}
	if err := h.Auth.SignOut(r.Context(), token); err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"signed_out": true,
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.principal(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"session": map[string]any{
			"session_id": pr.SessionID,
			"expires_at": pr.ExpiresAt,
		},
		"profile": pr.Profile,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.principal(w, r)
	if !ok {
		return
	}
	vs := dashboard.ViewState{
		Search: r.URL.Query().Get("q"),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Sort:   strings.TrimSpace(r.URL.Query().Get("sort")),
	}
	if vs.Status != "" && !dashboard.ValidFilter(vs.Status) {
		httpx.WriteError(w, 400, "BAD_REQUEST", "status must be one of all, active, archived, replaced", nil)
		return
	}
	if vs.Sort != "" && !dashboard.ValidSort(vs.Sort) {
		httpx.WriteError(w, 400, "BAD_REQUEST", "sort must be one of date-desc, date-asc, title", nil)
		return
	}

	all, err := h.Store.ListProcedures(r.Context())
	if err != nil {
		// The original UI swallowed this; the API surfaces it so the
		// client can offer a retry.
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	shown := dashboard.Recompute(all, vs)

	resp := map[string]any{
		"request_id": httpx.NewRequestID(),
		"procedures": shown,
		"count":      len(shown),
	}
	if len(shown) == 0 {
		resp["empty_message"] = dashboard.EmptyMessage(vs.Search, pr.IsAdmin())
	}
	httpx.WriteJSON(w, 200, resp)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.admin(w, r)
	if !ok {
		return
	}
	var req procedureInput
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	effective, fields := req.validate(modeCreate)
	if len(fields) > 0 {
		httpx.WriteFieldErrors(w, fields)
		return
	}

	creator := pr.Profile.ProfileID
	p := store.Procedure{
		ProcedureID:   "prc_" + uuid.NewString(),
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Source:        strings.TrimSpace(req.Source),
		SourceLink:    strings.TrimSpace(req.SourceLink),
		EffectiveDate: effective,
		Status:        store.StatusActive,
		CreatedBy:     &creator,
	}
	if err := h.Store.CreateProcedure(r.Context(), p); err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	proceduresCreated.Inc()
	created, err := h.Store.GetProcedure(r.Context(), p.ProcedureID)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 201, map[string]any{
		"request_id": httpx.NewRequestID(),
		"procedure":  created,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.admin(w, r); !ok {
		return
	}
	procedureID := chi.URLParam(r, "procedure_id")
	var req procedureInput
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	effective, fields := req.validate(modeEdit)
	if len(fields) > 0 {
		httpx.WriteFieldErrors(w, fields)
		return
	}

	p := store.Procedure{
		ProcedureID:   procedureID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Source:        strings.TrimSpace(req.Source),
		SourceLink:    strings.TrimSpace(req.SourceLink),
		EffectiveDate: effective,
		Status:        req.Status,
	}
	if err := h.Store.UpdateProcedure(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrProcedureNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "procedure not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	updated, err := h.Store.GetProcedure(r.Context(), procedureID)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"procedure":  updated,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	p, err := h.Store.GetProcedure(r.Context(), chi.URLParam(r, "procedure_id"))
	if err != nil {
		if errors.Is(err, store.ErrProcedureNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "procedure not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 200, map[string]any{
		"request_id": httpx.NewRequestID(),
		"procedure":  p,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.principal(w, r)
	if !ok {
		return
	}
	procedureID := chi.URLParam(r, "procedure_id")
	p, err := h.Store.GetProcedure(r.Context(), procedureID)
	if err != nil {
		if errors.Is(err, store.ErrProcedureNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "procedure not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	st, err := h.Store.ProcedureStats(r.Context(), procedureID, pr.Profile.ProfileID)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	resp := map[string]any{
		"request_id": httpx.NewRequestID(),
		"stats": map[string]any{
			"acknowledged_count": st.AcknowledgedCount,
			"profile_count":      st.ProfileCount,
			"percentage":         dashboard.CompletionPercent(st.AcknowledgedCount, st.ProfileCount),
			"has_acknowledged":   st.HasAcknowledged,
		},
	}
	if p.CreatedBy != nil {
		creator, err := h.Store.GetProfile(r.Context(), *p.CreatedBy)
		if err == nil {
			resp["creator"] = creator
		} else if !errors.Is(err, store.ErrProfileNotFound) {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
	}
	httpx.WriteJSON(w, 200, resp)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	pr, ok := h.principal(w, r)
	if !ok {
		return
	}
	procedureID := chi.URLParam(r, "procedure_id")
	if _, err := h.Store.GetProcedure(r.Context(), procedureID); err != nil {
		if errors.Is(err, store.ErrProcedureNotFound) {
			httpx.WriteError(w, 404, "NOT_FOUND", "procedure not found", nil)
			return
		}
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}

	ack := store.Acknowledgment{
		AckID:       "ack_" + uuid.NewString(),
		ProcedureID: procedureID,
		UserID:      pr.Profile.ProfileID,
	}
	inserted, err := h.Store.InsertAcknowledgment(r.Context(), ack)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	outcome := "recorded"
	status := 201
	if !inserted {
		// Duplicate submission, racing or otherwise. Not an error.
		outcome = "duplicate"
		status = 200
	}
	acknowledgmentsTotal.WithLabelValues(outcome).Inc()

	st, err := h.Store.ProcedureStats(r.Context(), procedureID, pr.Profile.ProfileID)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, status, map[string]any{
		"request_id":   httpx.NewRequestID(),
		"acknowledged": true,
		"recorded":     inserted,
		"stats": map[string]any{
			"acknowledged_count": st.AcknowledgedCount,
			"profile_count":      st.ProfileCount,
			"percentage":         dashboard.CompletionPercent(st.AcknowledgedCount, st.ProfileCount),
			"has_acknowledged":   true,
		},
	})
}

func isSaneEmail(email string) bool {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(email)), "@")
	if len(parts) != 2 {
		return false
	}
	local := strings.TrimSpace(parts[0])
	domain := strings.TrimSpace(parts[1])
	return local != "" && domain != "" && strings.Contains(domain, ".")
}

type formMode int

const (
	modeCreate formMode = iota
	modeEdit
)

// procedureInput is the editor's form state: one explicit record for both
// create and edit modes.
type procedureInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Source        string `json:"source"`
	SourceLink    string `json:"source_link"`
	EffectiveDate string `json:"effective_date"`
	Status        string `json:"status"`
}

// validate checks required fields and returns the parsed effective date
// alongside any field errors. Status is rejected at creation and required
// on edit.
func (in procedureInput) validate(mode formMode) (store.Date, []httpx.FieldError) {
	fields := []httpx.FieldError{}
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, httpx.FieldError{Field: "title", Message: "title is required"})
	}
	var effective store.Date
	if strings.TrimSpace(in.EffectiveDate) == "" {
		fields = append(fields, httpx.FieldError{Field: "effective_date", Message: "effective date is required"})
	} else {
		parsed, err := store.ParseDate(in.EffectiveDate)
		if err != nil {
			fields = append(fields, httpx.FieldError{Field: "effective_date", Message: err.Error()})
		} else {
			effective = parsed
		}
	}
	if link := strings.TrimSpace(in.SourceLink); link != "" {
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			fields = append(fields, httpx.FieldError{Field: "source_link", Message: "source link must be an http(s) URL"})
		}
	}
	switch mode {
	case modeCreate:
		if in.Status != "" && in.Status != store.StatusActive {
			fields = append(fields, httpx.FieldError{Field: "status", Message: "status is not editable at creation"})
		}
	case modeEdit:
		if !store.ValidStatus(in.Status) {
			fields = append(fields, httpx.FieldError{Field: "status", Message: "status must be one of active, archived, replaced"})
		}
	}
	return effective, fields
}
