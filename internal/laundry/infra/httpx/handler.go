package httpx

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/intake"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/pricing"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/receipt"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/httpx/middlewares"
)

const defaultMaxFormBytes = 1 << 20

//go:embed web
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// Handler serves the intake form, accepts submissions and renders receipts.
type Handler struct {
	service      ports.IntakeService
	renderer     *receipt.Renderer
	prices       pricing.PriceTable
	shopName     string
	metrics      *middlewares.Metrics // nil-safe
	maxFormBytes int64
}

type HandlerOption func(*Handler)

// WithMetrics counts submission outcomes on m.
func WithMetrics(m *middlewares.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithMaxFormBytes caps the size of a submitted form body.
func WithMaxFormBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxFormBytes = n
		}
	}
}

func NewHandler(svc ports.IntakeService, renderer *receipt.Renderer, prices pricing.PriceTable, shopName string, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:      svc,
		renderer:     renderer,
		prices:       prices,
		shopName:     shopName,
		maxFormBytes: defaultMaxFormBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type formItem struct {
	Field     string
	Label     string
	UnitPrice string
}

// Index renders the intake form with the configured prices.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page := struct {
		ShopName string
		Currency string
		Items    []formItem
	}{
		ShopName: h.shopName,
		Currency: h.renderer.Currency(),
	}
	for _, t := range entity.ItemTypes() {
		page.Items = append(page.Items, formItem{
			Field:     t.FormField(),
			Label:     string(t),
			UnitPrice: receipt.FormatAmount(h.prices[t]),
		})
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		slog.ErrorContext(r.Context(), "failed to render intake form", "error", err)
		writeError(w, http.StatusInternalServerError, "render_error", "")
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// Submit validates, prices and stores a form submission and answers with the
// receipt, as HTML unless the client asks for JSON.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFormBytes)
	if err := r.ParseMultipartForm(h.maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.observe("rejected")
		writeError(w, http.StatusBadRequest, "invalid_form", "request body could not be parsed as a form")
		return
	}

	order, err := h.service.Submit(r.Context(), intake.FormFromValues(r.PostForm))
	if err != nil {
		var verr *intake.ValidationError
		if errors.As(err, &verr) {
			h.observe("rejected")
		} else {
			h.observe("failed")
		}
		writeServiceError(r.Context(), w, err)
		return
	}
	h.observe("created")

	h.respondWithOrder(w, r, order)
}

// GetReceipt re-renders the HTML receipt of a stored order.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	order, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeReceipt(w, r, order)
}

// GetOrder returns a stored order as JSON.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order, h.renderer.Currency()))
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "store unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*entity.Order, bool) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	if code == "" {
		writeError(w, http.StatusBadRequest, "order_code_required", "")
		return nil, false
	}

	order, err := h.service.GetOrder(r.Context(), code)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return nil, false
	}
	return order, true
}

func (h *Handler) respondWithOrder(w http.ResponseWriter, r *http.Request, order *entity.Order) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, mapOrderToResponse(order, h.renderer.Currency()))
		return
	}
	h.writeReceipt(w, r, order)
}

func (h *Handler) writeReceipt(w http.ResponseWriter, r *http.Request, order *entity.Order) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, order); err != nil {
		slog.ErrorContext(r.Context(), "failed to render receipt", "order_code", order.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "render_error", "")
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (h *Handler) observe(result string) {
	if h.metrics != nil {
		h.metrics.ObserveSubmission(result)
	}
}

// wantsJSON reports whether the Accept header names application/json with a
// non-zero quality.
func wantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || mediaType != "application/json" {
			continue
		}
		if q, ok := params["q"]; ok {
			if v, err := strconv.ParseFloat(q, 64); err != nil || v <= 0 {
				continue
			}
		}
		return true
	}
	return false
}

// writeServiceError maps core errors onto HTTP status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *intake.ValidationError
	switch {
	case errors.As(err, &verr):
		code := "validation_error"
		if errors.Is(err, intake.ErrNoItems) {
			code = "no_items_selected"
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: code, Message: verr.Reason, Field: verr.Field})
	case errors.Is(err, ports.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", "no order with that code")
	default:
		slog.ErrorContext(ctx, "request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "the order store failed, please try again")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
