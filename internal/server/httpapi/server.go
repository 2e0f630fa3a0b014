package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/akarpov87/invoicehub/internal/ai"
	"github.com/akarpov87/invoicehub/internal/errs"
	"github.com/akarpov87/invoicehub/internal/model"
	"github.com/akarpov87/invoicehub/internal/service"
)

// Server wires application services to REST routes.
type Server struct {
	auth     service.AuthService
	invoices service.InvoiceService
	ai       *ai.Service
	log      *zap.Logger
}

// New constructs the HTTP server facade.
func New(auth service.AuthService, invoices service.InvoiceService, aiSvc *ai.Service, log *zap.Logger) *Server {
	return &Server{auth: auth, invoices: invoices, ai: aiSvc, log: log}
}

// Handler returns the routed handler with recover and logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Ungated.
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	// Everything else sits behind the auth gate.
	gated := func(h http.HandlerFunc) http.Handler { return s.authGate(h) }
	mux.Handle("GET /api/auth/me", gated(s.handleGetMe))
	mux.Handle("PUT /api/auth/me", gated(s.handleUpdateProfile))
	mux.Handle("POST /api/invoices", gated(s.handleCreateInvoice))
	mux.Handle("GET /api/invoices", gated(s.handleListInvoices))
	mux.Handle("GET /api/invoices/{id}", gated(s.handleGetInvoice))
	mux.Handle("PUT /api/invoices/{id}", gated(s.handleUpdateInvoice))
	mux.Handle("DELETE /api/invoices/{id}", gated(s.handleDeleteInvoice))
	mux.Handle("POST /api/ai/parse-text", gated(s.handleParseText))
	mux.Handle("POST /api/ai/generate-reminder", gated(s.handleGenerateReminder))
	mux.Handle("GET /api/ai/dashboard-summary", gated(s.handleDashboardSummary))

	var h http.Handler = mux
	h = Logging(s.log)(h)
	h = Recover(s.log)(h)
	return h
}

type userData struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Token        string    `json:"token,omitempty"`
	BusinessName string    `json:"businessName"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
}

func userPayload(u *model.User, token string) userData {
	return userData{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Token:        token,
		BusinessName: u.BusinessName,
		Address:      u.Address,
		Phone:        u.Phone,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, tokens, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			writeMessage(w, http.StatusBadRequest, "User already exists")
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User Created Successfully",
		"data":    userPayload(u, tokens.AccessToken),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, tokens, err := s.auth.Login(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": userPayload(u, tokens.AccessToken),
	})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": userPayload(u, "")})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	var req struct {
		Name         string `json:"name"`
		BusinessName string `json:"businessName"`
		Address      string `json:"address"`
		Phone        string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := s.auth.UpdateProfile(r.Context(), u.ID, service.ProfileUpdate{
		Name:         req.Name,
		BusinessName: req.BusinessName,
		Address:      req.Address,
		Phone:        req.Phone,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": userPayload(updated, "")})
}

// invoiceRequest mirrors the invoice body for create and partial update.
// Derived totals are intentionally absent: the server always recomputes them.
type invoiceRequest struct {
	InvoiceNumber string              `json:"invoiceNumber"`
	InvoiceDate   *time.Time          `json:"invoiceDate"`
	DueDate       *time.Time          `json:"dueDate"`
	BillFrom      *model.Party        `json:"billFrom"`
	BillTo        *model.Party        `json:"billTo"`
	Items         []model.InvoiceItem `json:"items"`
	Notes         string              `json:"notes"`
	PaymentTerms  string              `json:"paymentTerms"`
	Status        string              `json:"status"`
}

func (req invoiceRequest) toInput() service.InvoiceInput {
	return service.InvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   req.InvoiceDate,
		DueDate:       req.DueDate,
		BillFrom:      req.BillFrom,
		BillTo:        req.BillTo,
		Items:         req.Items,
		Notes:         req.Notes,
		PaymentTerms:  req.PaymentTerms,
		Status:        req.Status,
	}
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	inv, err := s.invoices.Create(r.Context(), u.ID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	page, err := s.invoices.List(r.Context(), u.ID, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	// Listing results drift over time, so clients must not cache them.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Invoice not found")
		return
	}
	inv, err := s.invoices.Get(r.Context(), u.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Invoice not found")
		return
	}
	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	inv, err := s.invoices.Update(r.Context(), u.ID, id, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Invoice not found")
		return
	}
	if err := s.invoices.Delete(r.Context(), u.ID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invoice deleted successfully"})
}

func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserFromCtx(r.Context()); !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	var req struct {
		Text     string `json:"text"`
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	provider, parsed, err := s.ai.ParseInvoiceText(r.Context(), req.Text, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": provider,
		"message":  "Invoice parsed successfully",
		"data":     parsed,
	})
}

func (s *Server) handleGenerateReminder(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	var req struct {
		InvoiceID string `json:"invoiceId"`
		Provider  string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.InvoiceID == "" {
		writeMessage(w, http.StatusBadRequest, "Invoice ID is required")
		return
	}
	id, err := uuid.FromString(req.InvoiceID)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Invoice not found")
		return
	}
	provider, email, err := s.ai.GenerateReminder(r.Context(), u.ID, id, req.Provider)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": provider,
		"message":  "Reminder email generated successfully",
		"email":    email,
	})
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromCtx(r.Context())
	if !ok {
		writeError(w, errs.ErrUnauthorized)
		return
	}
	provider, sum, err := s.ai.DashboardSummary(r.Context(), u.ID, r.URL.Query().Get("provider"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"provider": provider,
		"message":  "Dashboard summary fetched successfully",
		"data":     sum,
	})
}
