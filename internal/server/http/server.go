// Package httpserver exposes the BriefBridge HTTP API handlers.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/briefbridge/internal/errs"
	"github.com/and161185/briefbridge/internal/model"
	"github.com/and161185/briefbridge/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MiB

// Options carries transport-level settings.
type Options struct {
	// AdminKey, when non-empty, requires an HS256 bearer token for listing briefs.
	AdminKey []byte
	// StoreMode is reported by the health endpoint.
	StoreMode string
	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string
}

// Server wires services into HTTP handlers.
type Server struct {
	briefs   service.BriefService
	checkout service.CheckoutService
	unlocks  service.UnlockService
	opts     Options
	log      *zap.Logger
}

// New constructs an HTTP server with injected services.
func New(briefs service.BriefService, checkout service.CheckoutService, unlocks service.UnlockService, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	return &Server{briefs: briefs, checkout: checkout, unlocks: unlocks, opts: opts, log: log}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(Recover(s.log), Logging(s.log), CORS(s.opts.AllowedOrigin))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/briefs", s.createBrief).Methods(http.MethodPost)
	api.Handle("/briefs", s.requireAdmin(http.HandlerFunc(s.listBriefs))).Methods(http.MethodGet)
	api.HandleFunc("/briefs/{id}/unlock", s.unlockStatus).Methods(http.MethodGet)
	api.HandleFunc("/create-checkout-session", s.createCheckoutSession).Methods(http.MethodPost)
	api.HandleFunc("/stripe-webhook", s.stripeWebhook).Methods(http.MethodPost)

	// Preflight for any API path.
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// --- Briefs ---

type createBriefRequest struct {
	Brief *model.BriefInput `json:"brief"`
}

type createBriefResponse struct {
	Created model.Brief `json:"created"`
}

type listBriefsResponse struct {
	Briefs []model.Brief `json:"briefs"`
}

type unlockStatusResponse struct {
	BriefID  string `json:"briefId"`
	Unlocked bool   `json:"unlocked"`
}

func (s *Server) createBrief(w http.ResponseWriter, r *http.Request) {
	var req createBriefRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Brief == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	created, err := s.briefs.Create(r.Context(), *req.Brief, clientIP(r))
	if err != nil {
		s.fail(w, "create_brief", err)
		return
	}
	writeJSON(w, http.StatusOK, createBriefResponse{Created: created})
}

func (s *Server) listBriefs(w http.ResponseWriter, r *http.Request) {
	if sub, ok := SubjectFromCtx(r.Context()); ok {
		s.log.Debug("list briefs", zap.String("admin", sub))
	}
	out, err := s.briefs.List(r.Context())
	if err != nil {
		s.fail(w, "list_briefs", err)
		return
	}
	writeJSON(w, http.StatusOK, listBriefsResponse{Briefs: out})
}

func (s *Server) unlockStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ok, err := s.briefs.UnlockStatus(r.Context(), id)
	if err != nil {
		s.fail(w, "unlock_status", err, zap.String("brief_id", id))
		return
	}
	writeJSON(w, http.StatusOK, unlockStatusResponse{BriefID: id, Unlocked: ok})
}

// --- Payments ---

type checkoutRequest struct {
	BriefID    string `json:"briefId"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func (s *Server) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing briefId/successUrl/cancelUrl")
		return
	}
	url, err := s.checkout.StartCheckout(r.Context(), req.BriefID, req.SuccessURL, req.CancelURL)
	if err != nil {
		s.fail(w, "create_checkout_session", err, zap.String("brief_id", req.BriefID))
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse{URL: url})
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status,omitempty"`
}

// stripeWebhook hands the unparsed body to verification; signatures cover exact bytes.
func (s *Server) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	out, err := s.unlocks.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		s.fail(w, "stripe_webhook", err)
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Received: true, Status: string(out)})
}

// --- Health ---

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": s.opts.StoreMode})
}

// --- helpers ---

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(dst)
}

// fail maps service errors to responses; unexpected ones are logged with the operation name.
func (s *Server) fail(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	var rl *service.RateLimitedError
	switch {
	case errors.Is(err, errs.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Service unavailable")
	case errors.Is(err, errs.ErrSignature):
		writeError(w, http.StatusBadRequest, "Webhook Error: invalid signature")
	case errors.As(err, &rl):
		w.Header().Set("Retry-After", retryAfterSeconds(rl))
		writeError(w, http.StatusTooManyRequests, "Too many submissions")
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		s.log.Error("request failed", append(fields, zap.String("op", op), zap.Error(err))...)
		writeError(w, http.StatusInternalServerError, "internal")
	}
}

func retryAfterSeconds(rl *service.RateLimitedError) string {
	secs := int(rl.RetryAfter.Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP prefers the first X-Forwarded-For hop, as set by the fronting proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
