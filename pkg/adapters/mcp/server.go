// Package mcp exposes the option matcher and wizard sessions as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/adwizard"
	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/matcher"
	"github.com/aretw0/adwizard/pkg/sanitize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// TemplatesURI is the resource listing the template catalog.
const TemplatesURI = "adwizard://templates"

// MatchResponse is the structured result of match_option.
type MatchResponse struct {
	Matched    bool              `json:"matched" jsonschema_description:"Whether any rule matched"`
	OptionID   *string           `json:"option_id" jsonschema_description:"The matched option id, null when nothing matched"`
	Confidence domain.Confidence `json:"confidence" jsonschema_description:"high, medium or low"`
	Rule       string            `json:"rule,omitempty" jsonschema_description:"Name of the matcher rule that fired"`
}

// URLResponse is the structured result of looks_like_url.
type URLResponse struct {
	LooksLikeURL bool   `json:"looks_like_url"`
	URL          string `json:"url,omitempty" jsonschema_description:"The extracted link with scheme"`
}

// TurnResponse aligns with the HTTP session responses.
type TurnResponse struct {
	Session *domain.Session     `json:"session" jsonschema_description:"The session after the reply"`
	Prompt  *domain.Prompt      `json:"prompt,omitempty" jsonschema_description:"What to ask the user next"`
	Match   *domain.MatchResult `json:"match,omitempty"`
	Changed bool                `json:"changed" jsonschema_description:"Whether the reply changed the session"`
}

// Server wraps a Wizard and exposes it as an MCP Server.
type Server struct {
	wizard    *adwizard.Wizard
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(w *adwizard.Wizard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		wizard:    w,
		mcpServer: server.NewMCPServer("adwizard-mcp", strings.TrimSpace(adwizard.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: match_option
	s.mcpServer.AddTool(mcp.NewTool("match_option",
		mcp.WithDescription("Map free-text user input to one option of a question."),
		mcp.WithString("input", mcp.Required(), mcp.Description("What the user typed")),
		mcp.WithString("question", mcp.Required(), mcp.Description(`JSON object {"id": "...", "options": [{"id","label","description"}]}`)),
		mcp.WithOutputSchema[MatchResponse](),
	), mcp.NewStructuredToolHandler(s.handleMatch))

	// TOOL: looks_like_url
	s.mcpServer.AddTool(mcp.NewTool("looks_like_url",
		mcp.WithDescription("Check whether input is a link that should go to product ingestion instead of the matcher."),
		mcp.WithString("input", mcp.Required(), mcp.Description("What the user typed")),
		mcp.WithOutputSchema[URLResponse](),
	), mcp.NewStructuredToolHandler(s.handleLooksLikeURL))

	// TOOL: list_templates
	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the creative templates and the inputs each one needs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := s.templatesJSON(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list templates failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})

	// TOOL: wizard_reply
	s.mcpServer.AddTool(mcp.NewTool("wizard_reply",
		mcp.WithDescription("Send a chat reply to a wizard session. Omit session_id to start a new session."),
		mcp.WithString("session_id", mcp.Description("Existing session id (optional)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleReply))

	// TOOL: get_session
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get a session and the prompt for its current step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))
}

func (s *Server) handleMatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MatchResponse, error) {
	input, _ := args["input"].(string)
	clean, err := sanitize.Input(input)
	if err != nil {
		return MatchResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	var q *domain.Question
	switch raw := args["question"].(type) {
	case string:
		if strings.TrimSpace(raw) != "" {
			q = &domain.Question{}
			if err := json.Unmarshal([]byte(raw), q); err != nil {
				return MatchResponse{}, fmt.Errorf("invalid question: %w", err)
			}
		}
	case map[string]interface{}:
		data, _ := json.Marshal(raw)
		q = &domain.Question{}
		if err := json.Unmarshal(data, q); err != nil {
			return MatchResponse{}, fmt.Errorf("invalid question: %w", err)
		}
	}

	res := s.wizard.Match(clean, q)
	out := MatchResponse{Matched: res.Matched, Confidence: res.Confidence, Rule: res.Rule}
	if res.OptionID != "" {
		id := res.OptionID
		out.OptionID = &id
	}
	return out, nil
}

func (s *Server) handleLooksLikeURL(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (URLResponse, error) {
	input, _ := args["input"].(string)
	if !matcher.LooksLikeURL(input) {
		return URLResponse{}, nil
	}
	return URLResponse{LooksLikeURL: true, URL: matcher.ExtractURL(input)}, nil
}

func (s *Server) handleReply(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)
	text, _ := args["text"].(string)

	if sessionID == "" {
		turn, err := s.wizard.Create(ctx, "")
		if err != nil {
			return TurnResponse{}, fmt.Errorf("create session failed: %w", err)
		}
		sessionID = turn.Session.ID
	}

	turn, err := s.wizard.Reply(ctx, sessionID, text)
	if err != nil {
		s.logger.Warn("MCP reply failed", "session_id", sessionID, "err", err)
		return TurnResponse{}, fmt.Errorf("reply failed: %s", domain.UserMessage(err))
	}
	return toResponse(turn), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)
	turn, err := s.wizard.Get(ctx, sessionID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("get session failed: %w", err)
	}
	return toResponse(turn), nil
}

func toResponse(t *adwizard.Turn) TurnResponse {
	return TurnResponse{Session: t.Session, Prompt: t.Prompt, Match: t.Match, Changed: t.Changed}
}

func (s *Server) templatesJSON(ctx context.Context) ([]byte, error) {
	templates, err := s.wizard.Templates(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(templates)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(TemplatesURI, "Creative Templates",
		mcp.WithMIMEType("application/json"),
	), s.readTemplates)
}

func (s *Server) readTemplates(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := s.templatesJSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      TemplatesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
