package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/leadform/pkg/logging"
)

var leadsTracer = otel.Tracer("leadform.internal.leads")

// maxLeadBody caps the POST /leads body; a lead is a handful of short fields.
const maxLeadBody = 64 << 10

// Tracker receives a conversion event for every captured lead.
type Tracker interface {
	Track(ctx context.Context, rec Record)
}

// CreateLeadRequest is the JSON body accepted by CreateWebLead.
type CreateLeadRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Role      string `json:"role"`
}

// Values returns the request as raw form values.
func (r CreateLeadRequest) Values() map[string]string {
	return map[string]string{
		FieldFirstName: r.FirstName,
		FieldLastName:  r.LastName,
		FieldEmail:     r.Email,
		FieldCompany:   r.Company,
		FieldRole:      r.Role,
	}
}

// ValidationErrorResponse is returned with 422 when fields fail validation.
type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// Handler handles HTTP requests for leads
type Handler struct {
	store    *Store
	tracker  Tracker
	required []string
	now      func() time.Time
	logger   *logging.Logger
}

// NewHandler creates a new leads handler. tracker may be nil.
func NewHandler(store *Store, tracker Tracker, required []string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if len(required) == 0 {
		required = DefaultRequiredFields
	}
	return &Handler{
		store:    store,
		tracker:  tracker,
		required: required,
		now:      time.Now,
		logger:   logger,
	}
}

// CreateWebLead handles POST /leads requests. It applies the same
// validation as the interactive form but skips the simulated delay.
func (h *Handler) CreateWebLead(w http.ResponseWriter, r *http.Request) {
	ctx, span := leadsTracer.Start(r.Context(), "leads.create")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxLeadBody)
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.RecordError(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("request body too large", "limit", tooLarge.Limit)
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	values := req.Values()
	if errs := Validate(values, h.required); len(errs) > 0 {
		span.SetAttributes(attribute.Int("leadform.field_errors", len(errs)))
		writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{Errors: errs.Messages()})
		return
	}

	rec := NewRecord(values, h.now())
	if err := h.store.Append(ctx, rec); err != nil {
		h.logger.Error("failed to store lead", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "store failed")
		http.Error(w, "failed to store lead", http.StatusInternalServerError)
		return
	}
	if h.tracker != nil {
		h.tracker.Track(ctx, rec)
	}

	h.logger.Info("lead created", "email", rec.Email, "timestamp", rec.Timestamp)
	writeJSON(w, http.StatusCreated, rec)
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []Record `json:"leads"`
	Total  int      `json:"total"`
	Count  int      `json:"count"`
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
}

// ListLeads handles GET /admin/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			offset = v
		}
	}

	all := h.store.LoadAll(r.Context())
	page := []Record{}
	if offset < len(all) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		page = all[offset:end]
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{
		Leads:  page,
		Total:  len(all),
		Count:  len(page),
		Offset: offset,
		Limit:  limit,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
