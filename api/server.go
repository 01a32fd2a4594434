// Package api - HTTP host for picker sessions
// Each session owns one PlanSelector. The API only translates requests into
// selector operations and serializes the resulting view; plan codes and
// prices are always derived by core/picker.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"plan-picker/core/catalog"
	"plan-picker/core/picker"
	"plan-picker/core/types"
	"plan-picker/internal/errors"
	"plan-picker/internal/logging"
)

// OfferingSource supplies the offering new sessions are created against
type OfferingSource interface {
	Current() *catalog.Offering
}

// Server is the API server
type Server struct {
	mux      *http.ServeMux
	version  string
	source   OfferingSource
	sessions *SessionStore
	metrics  *Metrics
	logger   *zap.Logger
}

// Option configures a Server
type Option func(*serverOptions)

type serverOptions struct {
	metrics    *Metrics
	notifier   Notifier
	sessionTTL time.Duration
}

// WithMetrics records into an existing collector set
func WithMetrics(m *Metrics) Option {
	return func(o *serverOptions) {
		o.metrics = m
	}
}

// WithNotifier forwards every session decision to n
func WithNotifier(n Notifier) Option {
	return func(o *serverOptions) {
		o.notifier = n
	}
}

// WithSessionTTL sets how long an untouched session lives. Zero or less
// keeps sessions until they are deleted.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *serverOptions) {
		o.sessionTTL = ttl
	}
}

// NewServer creates a new API server
func NewServer(version string, source OfferingSource, opts ...Option) *Server {
	o := serverOptions{sessionTTL: DefaultSessionTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		version:  version,
		source:   source,
		sessions: NewSessionStore(o.metrics, o.notifier),
		metrics:  o.metrics,
		logger:   logging.Named("api"),
	}

	s.sessions.SetTTL(o.sessionTTL)

	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Sessions
	s.mux.HandleFunc("POST /sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /sessions/{id}/toggle", s.handleToggle)
	s.mux.HandleFunc("POST /sessions/{id}/choose", s.handleChoose)
	s.mux.HandleFunc("POST /sessions/{id}/cancel", s.sessionAction((*picker.PlanSelector).Cancel))
	s.mux.HandleFunc("POST /sessions/{id}/login", s.sessionAction((*picker.PlanSelector).RequestLogIn))
	s.mux.HandleFunc("POST /sessions/{id}/logout", s.sessionAction((*picker.PlanSelector).RequestLogOut))

	// Supporting endpoints
	s.mux.HandleFunc("GET /plans", s.handlePlans)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// Sessions returns the session store
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// handleCreateSession handles POST /sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// the body is optional; an empty one, chunked or not, decodes to io.EOF
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.writeError(w, errors.Wrap(errors.TypeInput, "invalid JSON body", err))
		return
	}

	resp, err := s.sessions.Create(s.source.Current(), req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, resp, http.StatusCreated)
}

// handleGetSession handles GET /sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleDeleteSession handles DELETE /sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggle handles POST /sessions/{id}/toggle
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessions.Do(r.PathValue("id"), func(p *picker.PlanSelector) error {
		p.ToggleCycle()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleChoose handles POST /sessions/{id}/choose
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.TypeInput, "invalid JSON body", err))
		return
	}
	if req.Tier == "" {
		s.writeError(w, errors.Input("tier is required"))
		return
	}

	resp, err := s.sessions.Do(r.PathValue("id"), func(p *picker.PlanSelector) error {
		return p.ChoosePlan(req.Tier)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// sessionAction adapts a terminal selector operation to a handler
func (s *Server) sessionAction(op func(*picker.PlanSelector) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.sessions.Do(r.PathValue("id"), op)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, resp, http.StatusOK)
	}
}

// handlePlans handles GET /plans
func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	cycle := types.CycleMonthly
	if q := r.URL.Query().Get("cycle"); q != "" {
		parsed, err := types.ParseBillingCycle(q)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.TypeInput, "invalid cycle", err))
			return
		}
		cycle = parsed
	}

	resp, err := ListPlans(s.source.Current(), cycle)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":   "healthy",
		"version":  s.version,
		"sessions": s.sessions.Len(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"service":     "plan-picker",
		"api_version": "v1",
	}, http.StatusOK)
}

// ListPlans prices every offered tier on one billing cycle
func ListPlans(offering *catalog.Offering, cycle types.BillingCycle) (*PlansResponse, error) {
	resp := &PlansResponse{
		Cycle:    cycle,
		Plans:    make([]PlanListing, 0, len(offering.Tiers)),
		TermsURL: offering.TermsURL,
	}
	for _, tier := range offering.Tiers {
		plan, err := offering.Plans.Lookup(types.NewPlanCode(tier.Code, cycle))
		if err != nil {
			return nil, err
		}
		resp.Plans = append(resp.Plans, PlanListing{
			Tier:         tier.Code,
			Name:         tier.Name,
			PlanCode:     plan.Code,
			MonthlyPrice: plan.Prices.Monthly,
			Currency:     plan.Currency,
			PriceSuffix:  tier.Suffix(),
			Purchasable:  tier.Purchasable(),
		})
	}
	return resp, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := ErrorBody{Code: string(errors.TypeInternal), Message: err.Error()}
	if e, ok := errors.As(err); ok {
		body = ErrorBody{Code: string(e.Type), Message: e.Message, Context: e.Context}
	}

	status := statusFor(errors.Type(body.Code))
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, ErrorResponse{Error: body}, status)
}

func statusFor(t errors.Type) int {
	switch t {
	case errors.TypeInput, errors.TypeParsing:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	case errors.TypeState:
		return http.StatusConflict
	case errors.TypeCatalog:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
