package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/concord"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/negotiation"
	"github.com/aretw0/concord/pkg/ports"
	"github.com/aretw0/concord/pkg/validator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TemplatesURI is the resource listing every template of the catalog.
const TemplatesURI = "concord://templates"

// Service is the negotiation surface exposed to agents.
type Service interface {
	Templates(ctx context.Context) ([]string, error)
	Template(ctx context.Context, templateID string) (domain.Template, error)
	Submit(ctx context.Context, pref domain.PartyPreference, metadata map[string]string) (negotiation.Receipt, error)
	Result(ctx context.Context, templateID string) (domain.TemplateResult, error)
}

// Server wraps the negotiation service and exposes it as an MCP Server.
type Server struct {
	svc       Service
	engine    ports.Reconciler
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. The engine serves the stateless
// reconcile tool; everything else goes through svc.
func NewServer(svc Service, engine ports.Reconciler) *Server {
	s := &Server{
		svc:       svc,
		engine:    engine,
		mcpServer: server.NewMCPServer("concord-mcp", concord.Version, server.WithRecovery()),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
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

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_templates
	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the ids of every contract template in the catalog."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.svc.Templates(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_result
	resultTool := mcp.NewTool("get_result",
		mcp.WithDescription("Get the current reconciliation result of a template from the stored preferences."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template ID")),
		mcp.WithOutputSchema[domain.TemplateResult](),
	)
	s.mcpServer.AddTool(resultTool, mcp.NewStructuredToolHandler(s.handleGetResult))

	// TOOL: submit_preference
	submitTool := mcp.NewTool("submit_preference",
		mcp.WithDescription("Store a party's ranking for one clause group and return the updated outcome."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template ID")),
		mcp.WithString("group_id", mcp.Required(), mcp.Description("Clause group ID")),
		mcp.WithString("party", mcp.Required(), mcp.Description("party_a or party_b")),
		mcp.WithString("ranking", mcp.Description("JSON array of acceptable variant IDs, most preferred first")),
		mcp.WithString("rejected", mcp.Description("JSON array of rejected variant IDs")),
		mcp.WithString("metadata", mcp.Description("JSON object of string metadata (optional)")),
		mcp.WithOutputSchema[negotiation.Receipt](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	// TOOL: reconcile
	reconcileTool := mcp.NewTool("reconcile",
		mcp.WithDescription("Reconcile inline submissions for a template without storing them."),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template ID")),
		mcp.WithString("submissions", mcp.Required(), mcp.Description("JSON array of submissions: {group_id, party, ranking, rejected}")),
		mcp.WithOutputSchema[domain.TemplateResult](),
	)
	s.mcpServer.AddTool(reconcileTool, mcp.NewStructuredToolHandler(s.handleReconcile))
}

// Handler methods for structured tools

func (s *Server) handleGetResult(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.TemplateResult, error) {
	templateID, _ := args["template_id"].(string)
	return s.svc.Result(ctx, templateID)
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (negotiation.Receipt, error) {
	raw := map[string]any{
		"template_id": args["template_id"],
		"group_id":    args["group_id"],
		"party":       args["party"],
	}
	for _, key := range []string{"ranking", "rejected", "metadata"} {
		str, ok := args[key].(string)
		if !ok || str == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return negotiation.Receipt{}, fmt.Errorf("%w: %s is not valid JSON: %v", validator.ErrMalformedSubmission, key, err)
		}
		raw[key] = v
	}

	sub, err := validator.Decode(raw)
	if err != nil {
		return negotiation.Receipt{}, err
	}
	receipt, err := s.svc.Submit(ctx, sub.Preference, sub.Metadata)
	if err != nil {
		slog.Warn("MCP Submit: rejected", "err", err)
		return negotiation.Receipt{}, err
	}
	return receipt, nil
}

func (s *Server) handleReconcile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.TemplateResult, error) {
	templateID, _ := args["template_id"].(string)
	tpl, err := s.svc.Template(ctx, templateID)
	if err != nil {
		return domain.TemplateResult{}, err
	}

	rawSubs, _ := args["submissions"].(string)
	var entries []map[string]any
	if err := json.Unmarshal([]byte(rawSubs), &entries); err != nil {
		return domain.TemplateResult{}, fmt.Errorf("%w: submissions must be a JSON array of objects: %v", validator.ErrMalformedSubmission, err)
	}

	subs := make(domain.Submissions, len(tpl.Groups))
	var errs []error
	for i, entry := range entries {
		if entry == nil {
			errs = append(errs, fmt.Errorf("submission %d: %w: entry is null", i, validator.ErrMalformedSubmission))
			continue
		}
		if _, ok := entry["template_id"]; !ok {
			entry["template_id"] = tpl.ID
		}
		sub, err := validator.Decode(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("submission %d: %w", i, err))
			continue
		}
		subs.Add(sub.Preference)
	}
	if err := errors.Join(errs...); err != nil {
		return domain.TemplateResult{}, err
	}

	return s.engine.ReconcileTemplate(ctx, tpl, subs), nil
}

func (s *Server) registerResources() {
	// EXPOSE: concord://templates
	s.mcpServer.AddResource(mcp.NewResource(TemplatesURI, "Contract Templates",
		mcp.WithResourceDescription("Every template with its clause groups and variants."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.svc.Templates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		templates := make([]domain.Template, 0, len(ids))
		for _, id := range ids {
			tpl, err := s.svc.Template(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load template %q: %w", id, err)
			}
			templates = append(templates, tpl)
		}
		jsonBytes, _ := json.Marshal(templates)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TemplatesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
