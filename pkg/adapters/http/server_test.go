package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/pkg/adapters/gateway"
	"github.com/aretw0/adwizard/pkg/adapters/generator"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/notify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	wizard  *adwizard.Wizard
	streams *StreamManager
}

func newFixture(t *testing.T, opts ...adwizard.Option) *fixture {
	t.Helper()
	streams := NewStreamManager(nil)
	opts = append([]adwizard.Option{
		adwizard.WithGenerator(generator.NewMock(5 * time.Millisecond)),
		adwizard.WithChangeListener(streams.Listener()),
		adwizard.WithNotifier(notify.StreamNotifier{Publisher: streams}),
	}, opts...)
	w, err := adwizard.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	h, err := NewHandler(w,
		WithStreams(streams),
		WithGateway(&gateway.Client{Mock: true}),
		WithGatherer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)
	return &fixture{handler: h, wizard: w, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

type turnResponse struct {
	Session domain.Session      `json:"session"`
	Changed bool                `json:"changed"`
	Prompt  *domain.Prompt      `json:"prompt"`
	Match   *domain.MatchResult `json:"match"`
}

func decodeTurn(t *testing.T, rec *httptest.ResponseRecorder) turnResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *fixture) createSession(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Session.ID)
	return out.Session.ID
}

func TestSpecLoads(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.Equal(t, "adwizard API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/sessions/{id}/reply"))
}

func TestInfoAndHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"adwizard API"`)

	rec = f.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Contains(t, rec.Body.String(), "openapi: 3.0.3")

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMatchEndpoint(t *testing.T) {
	f := newFixture(t)
	q := domain.Question{ID: "avatar", Options: []domain.Option{{ID: "emma", Label: "Emma"}, {ID: "liam", Label: "Liam"}}}

	rec := f.do(t, http.MethodPost, "/match", map[string]any{"input": "option b", "question": q})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matched":true,"option_id":"liam","confidence":"high","rule":"letter"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/match", map[string]any{"input": "anything"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matched":false,"option_id":null,"confidence":"low"}`, rec.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)
	base := "/sessions/" + id

	turn := decodeTurn(t, f.do(t, http.MethodPost, base+"/template", map[string]string{"template_id": "nope"}))
	assert.False(t, turn.Changed)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/template", map[string]string{"template_id": "product-showcase"}))
	assert.True(t, turn.Changed)
	assert.Equal(t, "product-image", turn.Session.PendingInputID)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/inputs", map[string]any{
		"input_id": "product-image",
		"value":    map[string]any{"blob": map[string]any{"url": "https://cdn.example.com/p.png", "size": 2048}},
	}))
	in, ok := turn.Session.CollectedInput("product-image")
	require.True(t, ok)
	assert.Equal(t, int64(2048), in.Value.Blob.Size)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/inputs", map[string]any{"input_id": "headline", "value": "Summer drop"}))
	assert.Equal(t, "duration", turn.Session.PendingInputID)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/inputs/duration/skip", nil))
	assert.Equal(t, domain.StateGenerating, turn.Session.CanvasState)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/generate", nil))
	assert.False(t, turn.Changed, "duplicate start is a no-op")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := f.wizard.Wait(ctx, id)
	require.NoError(t, err)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/publish", nil))
	assert.True(t, turn.Session.Published)

	rec := f.do(t, http.MethodPost, base+"/feedback", map[string]any{"rating": 5})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodPost, base+"/feedback", map[string]any{"rating": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	turn = decodeTurn(t, f.do(t, http.MethodPost, base+"/reset", nil))
	assert.Equal(t, domain.StateTemplateSelection, turn.Session.CanvasState)

	rec = f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplyAndFreeform(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	turn := decodeTurn(t, f.do(t, http.MethodPost, "/sessions/"+id+"/reply", map[string]string{"text": "the third one"}))
	assert.True(t, turn.Changed)
	assert.Equal(t, "ugc-testimonial", turn.Session.Template.ID)
	require.NotNil(t, turn.Match)
	assert.Equal(t, "ordinal", turn.Match.Rule)

	other := f.createSession(t)
	turn = decodeTurn(t, f.do(t, http.MethodPost, "/sessions/"+other+"/freeform", map[string]string{"prompt": "A cozy autumn candle ad"}))
	assert.Equal(t, domain.StateGenerating, turn.Session.CanvasState)
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/inputs", map[string]any{"input_id": "headline", "value": 42})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/inputs", map[string]any{"input_id": "headline", "value": map[string]any{"blob": map[string]any{}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/template", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/sessions/"+id+"/reply", map[string]string{"text": strings.Repeat("x", 10000)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/sessions/missing/reset", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingForwarder struct{ err error }

func (f failingForwarder) Forward(ctx context.Context, function string, body []byte) ([]byte, error) {
	return nil, f.err
}

func TestFunctions(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/functions/chat", map[string]any{"messages": []map[string]string{{"role": "user", "content": "hi"}}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"Got it: hi"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/functions/summarize", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrQuotaExhausted, http.StatusPaymentRequired},
		{domain.ErrUpstream, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h, err := NewHandler(f.wizard, WithGateway(failingForwarder{err: tt.err}), WithGatherer(prometheus.NewRegistry()))
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/functions/strategist", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), domain.UserMessage(tt.err))
		})
	}
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	id := f.createSession(t)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id="+id+"&watch=state", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 32)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			events <- scanner.Text()
		}
	}()

	require.Equal(t, "event: ping", <-events)
	require.Eventually(t, func() bool { return f.streams.Subscribers(id) == 1 }, time.Second, 10*time.Millisecond)

	decodeTurn(t, f.do(t, http.MethodPost, "/sessions/"+id+"/template", map[string]string{"template_id": "avatar-video"}))

	timeout := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-events:
			require.True(t, ok, "stream closed early")
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"canvas_state":"input-collection"`) {
				return
			}
		case <-timeout:
			t.Fatal("did not receive state diff")
		}
	}
}
