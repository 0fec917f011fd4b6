package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-receipts/internal/common"
	"github.com/noah-isme/toko-receipts/internal/pricing"
	"github.com/noah-isme/toko-receipts/internal/receipt"
)

// Handler exposes the receipt endpoints.
type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

type receiptRequest struct {
	Locale   string        `json:"locale" validate:"omitempty,bcp47_language_tag"`
	Currency string        `json:"currency" validate:"omitempty,iso4217"`
	Lines    []lineRequest `json:"lines" validate:"max=200,dive"`
	Rules    []ruleRequest `json:"rules" validate:"omitempty,max=20,dive"`
}

type lineRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
	Quantity  float64 `json:"quantity" validate:"gte=0"`
}

type ruleRequest struct {
	Threshold  float64 `json:"threshold" validate:"gte=0"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=1"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// NewHandler builds a handler with a validator reporting JSON field names.
func NewHandler(svc *Service) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{Svc: svc, validate: v}
}

// Routes mounts the receipt endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/receipts", h.Create)
	r.Post("/receipts/text", h.Text)
	r.Get("/discount-tiers", h.Tiers)
	r.Get("/locales", h.Locales)
}

// Create prices the order in the request body and returns the calculation with its receipt text.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	out, ok := h.quote(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Text prices the order and returns only the receipt text.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	out, ok := h.quote(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Receipt-ID", out.ID.String())
	common.Text(w, http.StatusOK, out.Text)
}

// Tiers lists the configured discount tiers, highest threshold first.
func (h *Handler) Tiers(w http.ResponseWriter, _ *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "receipt service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Rules()})
}

// Locales lists the locales receipts can be rendered in.
func (h *Handler) Locales(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": receipt.Supported()})
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) (Receipt, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "receipt service not configured", nil)
		return Receipt{}, false
	}
	var req receiptRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Receipt{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid receipt request", fieldErrors(verrs))
			return Receipt{}, false
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return Receipt{}, false
	}

	out, err := h.Svc.Quote(r.Context(), req.toInput(h.Svc.Options()))
	if err != nil {
		common.WriteError(w, err)
		return Receipt{}, false
	}
	return out, true
}

func (req receiptRequest) toInput(defaults receipt.Options) QuoteInput {
	in := QuoteInput{Lines: make([]pricing.Line, 0, len(req.Lines))}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, pricing.Line{Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	if req.Rules != nil {
		in.Rules = make([]pricing.Rule, 0, len(req.Rules))
		for _, rule := range req.Rules {
			in.Rules = append(in.Rules, pricing.Rule{Threshold: rule.Threshold, Percentage: rule.Percentage})
		}
	}
	if req.Locale != "" || req.Currency != "" {
		opts := defaults
		if req.Locale != "" {
			opts.Locale = req.Locale
		}
		if req.Currency != "" {
			opts.Currency = req.Currency
		}
		in.Options = &opts
	}
	return in
}

func fieldErrors(verrs validator.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, fieldError{Field: field, Rule: fe.Tag()})
	}
	return out
}
