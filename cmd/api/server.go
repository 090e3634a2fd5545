package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"intakeflow/auth"
	"intakeflow/client"
	"intakeflow/clinician"
	"intakeflow/comms"
	"intakeflow/mail"
	"intakeflow/outreach"
	"intakeflow/template"
)

type ctxKey string

const (
	ctxKeyUserID ctxKey = "userID"
	ctxKeyRole   ctxKey = "role"
)

// mailboxTokenHeader carries the per-request mail credential. The server
// never stores it; it is threaded straight into the outreach call.
const mailboxTokenHeader = "X-Mailbox-Token"

type outreachChecker interface {
	CheckOne(ctx context.Context, token mail.AccessToken, clientID string) (outreach.ClientResult, error)
	CheckAll(ctx context.Context, token mail.AccessToken) (outreach.BatchResult, error)
}

type templateService interface {
	List(ctx context.Context, stage int) ([]template.Record, error)
	Get(ctx context.Context, id string) (template.Record, error)
	Create(ctx context.Context, name string, stage int, subject, body string) (template.Record, error)
	Update(ctx context.Context, id, subject, body string) (template.Record, error)
	Publish(ctx context.Context, id string) (template.Record, error)
}

// Server wires the domain services behind a plain net/http mux.
type Server struct {
	authService      *auth.Service
	clientService    *client.Service
	clinicianService *clinician.Service
	templateService  templateService
	ledger           *outreach.Ledger
	commsRepo        comms.Repository
	checker          outreachChecker
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("/api/clients", s.requireAuth(s.handleClients))
	mux.HandleFunc("/api/clients/", s.requireAuth(s.handleClientDetail))
	mux.HandleFunc("/api/clinicians", s.requireAuth(s.handleClinicians))
	mux.HandleFunc("/api/clinicians/", s.requireAuth(s.handleClinician))
	mux.HandleFunc("/api/templates", s.requireAuth(s.handleTemplates))
	mux.HandleFunc("/api/templates/", s.requireAuth(s.handleTemplateDetail))
	mux.HandleFunc("/api/outreach/check", s.requireAuth(s.handleOutreachCheck))
	return mux
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, role, err := s.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next(w, r.WithContext(ctx))
	}
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, _ := r.Context().Value(ctxKeyUserID).(string)
	user, err := s.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(*user))
}

// --- clients ---

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	filters := client.Filters{
		Status:    client.Status(q.Get("status")),
		Search:    q.Get("search"),
		SortKey:   q.Get("sortKey"),
		SortOrder: q.Get("sortOrder"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = page
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		filters.PageSize = size
	}

	result, err := s.clientService.List(r.Context(), filters)
	if err != nil {
		if errors.Is(err, client.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "list clients failed")
		return
	}

	items := make([]clientResponse, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, toClientResponse(c))
	}
	writeJSON(w, http.StatusOK, listResponse[clientResponse]{Items: items, Total: result.Total})
}

// handleClientDetail routes everything under /api/clients/{id}:
// GET/PATCH the client itself, GET {id}/attempts, GET {id}/communications,
// and POST {id}/outreach/check.
func (s *Server) handleClientDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/clients/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing client id")
		return
	}
	clientID := parts[0]

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			s.getClient(w, r, clientID)
		case http.MethodPatch:
			s.patchClient(w, r, clientID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case len(parts) == 2 && parts[1] == "attempts" && r.Method == http.MethodGet:
		s.listAttempts(w, r, clientID)
	case len(parts) == 2 && parts[1] == "communications" && r.Method == http.MethodGet:
		s.listCommunications(w, r, clientID)
	case len(parts) == 3 && parts[1] == "outreach" && parts[2] == "check" && r.Method == http.MethodPost:
		s.checkClient(w, r, clientID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request, clientID string) {
	c, err := s.clientService.Get(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			writeError(w, http.StatusNotFound, "client not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get client failed")
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (s *Server) patchClient(w http.ResponseWriter, r *http.Request, clientID string) {
	var req struct {
		FullName            *string `json:"fullName"`
		Email               *string `json:"email"`
		Phone               *string `json:"phone"`
		Status              *string `json:"status"`
		AssignedClinicianID *string `json:"assignedClinicianId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := client.UpdateParams{
		FullName:            req.FullName,
		Email:               req.Email,
		Phone:               req.Phone,
		AssignedClinicianID: req.AssignedClinicianID,
	}
	if req.Status != nil {
		status := client.Status(*req.Status)
		params.Status = &status
	}

	updated, err := s.clientService.Update(r.Context(), clientID, params)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			writeError(w, http.StatusNotFound, "client not found")
		case errors.Is(err, client.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "update client failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(updated))
}

func (s *Server) listAttempts(w http.ResponseWriter, r *http.Request, clientID string) {
	attempts, err := s.ledger.GetByClient(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list attempts failed")
		return
	}
	items := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		items = append(items, toAttemptResponse(a))
	}
	writeJSON(w, http.StatusOK, listResponse[attemptResponse]{Items: items, Total: len(items)})
}

func (s *Server) listCommunications(w http.ResponseWriter, r *http.Request, clientID string) {
	records, err := s.commsRepo.ListByClient(r.Context(), clientID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list communications failed")
		return
	}
	items := make([]commResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toCommResponse(rec))
	}
	writeJSON(w, http.StatusOK, listResponse[commResponse]{Items: items, Total: len(items)})
}

// --- outreach ---

func (s *Server) checkClient(w http.ResponseWriter, r *http.Request, clientID string) {
	token := mail.AccessToken(r.Header.Get(mailboxTokenHeader))
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing "+mailboxTokenHeader+" header")
		return
	}
	result, err := s.checker.CheckOne(r.Context(), token, clientID)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			writeError(w, http.StatusNotFound, "client not found")
		case errors.Is(err, outreach.ErrMissingCredential):
			writeError(w, http.StatusBadRequest, "missing mailbox credential")
		default:
			writeError(w, http.StatusInternalServerError, "outreach check failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toCheckResponse(result))
}

func (s *Server) handleOutreachCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := mail.AccessToken(r.Header.Get(mailboxTokenHeader))
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing "+mailboxTokenHeader+" header")
		return
	}
	batch, err := s.checker.CheckAll(r.Context(), token)
	if err != nil {
		if errors.Is(err, outreach.ErrMissingCredential) {
			writeError(w, http.StatusBadRequest, "missing mailbox credential")
			return
		}
		writeError(w, http.StatusInternalServerError, "outreach check failed")
		return
	}

	results := make([]checkResponse, 0, len(batch.Results))
	for _, res := range batch.Results {
		results = append(results, toCheckResponse(res))
	}
	writeJSON(w, http.StatusOK, batchResponse{
		ClientsChecked: batch.ClientsChecked,
		RepliesFound:   batch.RepliesFound,
		StatusUpdates:  batch.StatusUpdates,
		Results:        results,
	})
}

// --- clinicians ---

func (s *Server) handleClinicians(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	profiles, err := s.clinicianService.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list clinicians failed")
		return
	}
	items := make([]clinicianResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toClinicianResponse(p))
	}
	writeJSON(w, http.StatusOK, listResponse[clinicianResponse]{Items: items, Total: len(items)})
}

func (s *Server) handleClinician(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/clinicians/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing clinician id")
		return
	}
	profile, err := s.clinicianService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, clinician.ErrNotFound) {
			writeError(w, http.StatusNotFound, "clinician not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get clinician failed")
		return
	}
	writeJSON(w, http.StatusOK, toClinicianResponse(profile))
}

// --- templates ---

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		stage := 0
		if raw := r.URL.Query().Get("stage"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				writeError(w, http.StatusBadRequest, "invalid stage")
				return
			}
			stage = parsed
		}
		records, err := s.templateService.List(r.Context(), stage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list templates failed")
			return
		}
		items := make([]templateResponse, 0, len(records))
		for _, rec := range records {
			items = append(items, toTemplateResponse(rec))
		}
		writeJSON(w, http.StatusOK, listResponse[templateResponse]{Items: items, Total: len(items)})
	case http.MethodPost:
		var req struct {
			Name    string `json:"name"`
			Stage   int    `json:"stage"`
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec, err := s.templateService.Create(r.Context(), req.Name, req.Stage, req.Subject, req.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toTemplateResponse(rec))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTemplateDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/templates/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "missing template id")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		rec, err := s.templateService.Get(r.Context(), id)
		if err != nil {
			s.writeTemplateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTemplateResponse(rec))
	case len(parts) == 1 && r.Method == http.MethodPatch:
		var req struct {
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec, err := s.templateService.Update(r.Context(), id, req.Subject, req.Body)
		if err != nil {
			s.writeTemplateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTemplateResponse(rec))
	case len(parts) == 2 && parts[1] == "publish" && r.Method == http.MethodPost:
		rec, err := s.templateService.Publish(r.Context(), id)
		if err != nil {
			s.writeTemplateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTemplateResponse(rec))
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) writeTemplateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, template.ErrNotFound):
		writeError(w, http.StatusNotFound, "template not found")
	case errors.Is(err, template.ErrBadStatus):
		writeError(w, http.StatusBadRequest, "template is not editable")
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// --- response shapes ---

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"fullName"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"createdAt"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type clientResponse struct {
	ID                  string  `json:"id"`
	FullName            string  `json:"fullName"`
	Email               string  `json:"email"`
	Phone               *string `json:"phone,omitempty"`
	Status              string  `json:"status"`
	AssignedClinicianID *string `json:"assignedClinicianId,omitempty"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

type clinicianResponse struct {
	ID           string   `json:"id"`
	FullName     string   `json:"fullName"`
	Credential   string   `json:"credential"`
	Specialties  []string `json:"specialties"`
	AcceptingNew bool     `json:"acceptingNew"`
	CreatedAt    string   `json:"createdAt"`
}

type templateResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Stage       int     `json:"stage"`
	Subject     string  `json:"subject"`
	Body        string  `json:"body"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
	PublishedAt *string `json:"publishedAt,omitempty"`
}

type attemptResponse struct {
	ID                string  `json:"id"`
	ClientID          string  `json:"clientId"`
	AttemptNumber     int     `json:"attemptNumber"`
	Type              string  `json:"type"`
	Status            string  `json:"status"`
	Subject           string  `json:"subject,omitempty"`
	PreviewText       string  `json:"previewText,omitempty"`
	SentAt            *string `json:"sentAt,omitempty"`
	ResponseWindowEnd *string `json:"responseWindowEnd,omitempty"`
	ResponseDetected  bool    `json:"responseDetected"`
	ResponseAt        *string `json:"responseDetectedAt,omitempty"`
}

type commResponse struct {
	ID            string `json:"id"`
	ClientID      string `json:"clientId"`
	Timestamp     string `json:"timestamp"`
	Direction     string `json:"direction"`
	Subject       string `json:"subject"`
	BodyPreview   string `json:"bodyPreview"`
	AttemptNumber *int   `json:"outreachAttemptNumber,omitempty"`
}

type checkAttemptResponse struct {
	AttemptNumber int    `json:"attemptNumber"`
	HasReply      bool   `json:"hasReply"`
	Error         string `json:"error,omitempty"`
}

type checkResponse struct {
	ClientID       string                 `json:"clientId"`
	PreviousStatus string                 `json:"previousStatus"`
	NewStatus      *string                `json:"newStatus,omitempty"`
	HasReply       bool                   `json:"hasReply"`
	Attempts       []checkAttemptResponse `json:"attempts"`
	Error          string                 `json:"error,omitempty"`
}

type batchResponse struct {
	ClientsChecked int             `json:"clientsChecked"`
	RepliesFound   int             `json:"repliesFound"`
	StatusUpdates  int             `json:"statusUpdates"`
	Results        []checkResponse `json:"results"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

func toClientResponse(c client.Client) clientResponse {
	return clientResponse{
		ID:                  c.ID,
		FullName:            c.FullName,
		Email:               c.Email,
		Phone:               c.Phone,
		Status:              string(c.Status),
		AssignedClinicianID: c.AssignedClinicianID,
		CreatedAt:           c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           c.UpdatedAt.Format(time.RFC3339),
	}
}

func toClinicianResponse(p clinician.Profile) clinicianResponse {
	return clinicianResponse{
		ID:           p.ID,
		FullName:     p.FullName,
		Credential:   p.Credential,
		Specialties:  p.Specialties,
		AcceptingNew: p.AcceptingNew,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func toTemplateResponse(rec template.Record) templateResponse {
	return templateResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Stage:       rec.Stage,
		Subject:     rec.Subject,
		Body:        rec.Body,
		Status:      string(rec.Status),
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   rec.UpdatedAt.Format(time.RFC3339),
		PublishedAt: formatTimePtr(rec.PublishedAt),
	}
}

func toAttemptResponse(a outreach.Attempt) attemptResponse {
	return attemptResponse{
		ID:                a.ID,
		ClientID:          a.ClientID,
		AttemptNumber:     a.AttemptNumber,
		Type:              string(a.Type),
		Status:            string(a.Status),
		Subject:           a.Subject,
		PreviewText:       a.PreviewText,
		SentAt:            formatTimePtr(a.SentAt),
		ResponseWindowEnd: formatTimePtr(a.ResponseWindowEnd),
		ResponseDetected:  a.ResponseDetected,
		ResponseAt:        formatTimePtr(a.ResponseDetectedAt),
	}
}

func toCommResponse(rec comms.Record) commResponse {
	return commResponse{
		ID:            rec.ID,
		ClientID:      rec.ClientID,
		Timestamp:     rec.Timestamp.Format(time.RFC3339),
		Direction:     string(rec.Direction),
		Subject:       rec.Subject,
		BodyPreview:   rec.BodyPreview,
		AttemptNumber: rec.OutreachAttemptNumber,
	}
}

func toCheckResponse(res outreach.ClientResult) checkResponse {
	out := checkResponse{
		ClientID:       res.ClientID,
		PreviousStatus: string(res.PreviousStatus),
		HasReply:       res.HasReply,
		Attempts:       make([]checkAttemptResponse, 0, len(res.Attempts)),
	}
	// Captured per-attempt failures do not surface as a CheckOne error, so
	// each attempt outcome is enumerated for the operator.
	for _, a := range res.Attempts {
		item := checkAttemptResponse{AttemptNumber: a.AttemptNumber, HasReply: a.HasReply}
		if a.Err != nil {
			item.Error = a.Err.Error()
		}
		out.Attempts = append(out.Attempts, item)
	}
	if res.NewStatus != nil {
		status := string(*res.NewStatus)
		out.NewStatus = &status
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
