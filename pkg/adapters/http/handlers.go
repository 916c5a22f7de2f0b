package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/notify"
	"github.com/aretw0/adwizard/pkg/sanitize"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/oapi-codegen/runtime"
)

// maxFunctionBody caps /functions request bodies.
const maxFunctionBody = 1 << 20

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info handles GET /info.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"title":       s.spec.Info.Title,
		"api_version": s.spec.Info.Version,
		"version":     strings.TrimSpace(adwizard.Version),
		"paths":       s.spec.Paths.Len(),
	})
}

// ListTemplates handles GET /templates.
func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.Wizard.Templates(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, templates)
}

type matchRequest struct {
	Input    string           `json:"input"`
	Question *domain.Question `json:"question"`
}

// Match handles POST /match. It is a pure call into the matcher.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	var body matchRequest
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	input, err := sanitize.Input(body.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Wizard.Match(input, body.Question))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Wizard.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	turn, err := s.Wizard.Create(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, turn)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.Wizard.Get(r.Context(), chi.URLParam(r, "id")))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Wizard.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectTemplate handles POST /sessions/{id}/template.
func (s *Server) SelectTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TemplateID string `json:"template_id"`
	}
	if err := decodeBody(r, &body); err != nil || trimmed(body.TemplateID) == "" {
		s.badRequest(w, "template_id is required")
		return
	}
	s.respond(w, r)(s.Wizard.SelectTemplate(r.Context(), chi.URLParam(r, "id"), trimmed(body.TemplateID)))
}

// ProvideInput handles POST /sessions/{id}/inputs.
func (s *Server) ProvideInput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InputID string `json:"input_id"`
		Value   any    `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil || body.InputID == "" {
		s.badRequest(w, "input_id and value are required")
		return
	}
	value, err := DecodeInputValue(body.Value)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	s.respond(w, r)(s.Wizard.ProvideInput(r.Context(), chi.URLParam(r, "id"), body.InputID, value))
}

// DecodeInputValue accepts a bare string, {"text": ...} or {"blob": {"url": ...}}.
func DecodeInputValue(raw any) (domain.InputValue, error) {
	var value domain.InputValue
	switch v := raw.(type) {
	case string:
		value = domain.TextValue(v)
	case map[string]any:
		if err := mapstructure.Decode(v, &value); err != nil {
			return domain.InputValue{}, fmt.Errorf("invalid value: %w", err)
		}
	default:
		return domain.InputValue{}, fmt.Errorf("value must be a string or an object")
	}
	if value.Text != "" {
		clean, err := sanitize.Input(value.Text)
		if err != nil {
			return domain.InputValue{}, err
		}
		value.Text = strings.TrimSpace(clean)
	}
	if value.Blob != nil && value.Blob.URL == "" {
		return domain.InputValue{}, fmt.Errorf("blob.url is required")
	}
	if value.IsZero() {
		return domain.InputValue{}, fmt.Errorf("value is empty")
	}
	return value, nil
}

// SkipInput handles POST /sessions/{id}/inputs/{inputID}/skip.
func (s *Server) SkipInput(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.Wizard.SkipInput(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "inputID")))
}

// StartGeneration handles POST /sessions/{id}/generate.
func (s *Server) StartGeneration(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.Wizard.StartGeneration(r.Context(), chi.URLParam(r, "id")))
}

// StartFreeform handles POST /sessions/{id}/freeform.
func (s *Server) StartFreeform(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	prompt, err := sanitize.Input(body.Prompt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respond(w, r)(s.Wizard.StartFreeform(r.Context(), chi.URLParam(r, "id"), prompt))
}

// Reset handles POST /sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.Wizard.Reset(r.Context(), chi.URLParam(r, "id")))
}

// Publish handles POST /sessions/{id}/publish.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r)(s.Wizard.Publish(r.Context(), chi.URLParam(r, "id")))
}

// Reply handles POST /sessions/{id}/reply.
func (s *Server) Reply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	s.respond(w, r)(s.Wizard.Reply(r.Context(), chi.URLParam(r, "id"), body.Text))
}

// SetPresence handles PUT /sessions/{id}/presence.
func (s *Server) SetPresence(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Away bool `json:"away"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	s.respond(w, r)(s.Wizard.SetPresence(r.Context(), chi.URLParam(r, "id"), body.Away))
}

// GetNotificationSettings handles GET /sessions/{id}/notifications.
func (s *Server) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.Wizard.NotificationSettings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prefs)
}

// SetNotificationSettings handles PUT /sessions/{id}/notifications.
func (s *Server) SetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var prefs notify.Preferences
	if err := decodeBody(r, &prefs); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if err := s.Wizard.SetNotificationSettings(r.Context(), chi.URLParam(r, "id"), prefs); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, prefs)
}

// SubmitFeedback handles POST /sessions/{id}/feedback.
func (s *Server) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var fb notify.Feedback
	if err := decodeBody(r, &fb); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		s.badRequest(w, "rating must be between 1 and 5")
		return
	}
	if err := s.Wizard.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), fb); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CallFunction handles POST /functions/{name}.
func (s *Server) CallFunction(w http.ResponseWriter, r *http.Request) {
	if s.Gateway == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "gateway not configured"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFunctionBody))
	if err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	out, err := s.Gateway.Forward(r.Context(), chi.URLParam(r, "name"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var sessionID, watch string
	if err := runtime.BindQueryParameter("form", true, true, "session_id", r.URL.Query(), &sessionID); err != nil {
		s.badRequest(w, "session_id is required")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		s.badRequest(w, "invalid watch parameter")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: subscribing to session updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	filter := parseWatch(watch)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg.Event == EventDiff && !filter.keep(msg.Data) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) func(*adwizard.Turn, error) {
	return func(turn *adwizard.Turn, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, turn)
	}
}
