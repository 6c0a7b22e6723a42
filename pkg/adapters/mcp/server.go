// Package mcp exposes the pipeline board to Model Context Protocol clients.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/brokerdesk/internal/logging"
	"github.com/aretw0/brokerdesk/pkg/clients"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/identity"
	"github.com/aretw0/brokerdesk/pkg/pipeline"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultActor is recorded on timeline events written through MCP.
const DefaultActor = "MCP Agent"

// StagesArgs are the arguments of list_stages.
type StagesArgs struct {
	PipelineID string `json:"pipeline_id,omitempty"`
}

// StagesResponse is the result of list_stages.
type StagesResponse struct {
	PipelineID string               `json:"pipeline_id" jsonschema_description:"Resolved pipeline id"`
	Stages     []domain.StageConfig `json:"stages" jsonschema_description:"Stages in board order"`
}

// BoardArgs are the arguments of get_board.
type BoardArgs struct {
	OrgID      string `json:"org_id"`
	PipelineID string `json:"pipeline_id,omitempty"`
}

// BoardColumn is a condensed board column.
type BoardColumn struct {
	Stage   domain.Stage  `json:"stage"`
	Title   string        `json:"title"`
	Clients []BoardClient `json:"clients"`
}

// BoardClient is a condensed client card.
type BoardClient struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Status domain.ClientStatus `json:"status"`
}

// BoardResponse is the result of get_board.
type BoardResponse struct {
	PipelineID string        `json:"pipeline_id"`
	Columns    []BoardColumn `json:"columns" jsonschema_description:"One column per stage"`
}

// MoveArgs are the arguments of move_client.
type MoveArgs struct {
	OrgID    string `json:"org_id"`
	ClientID string `json:"client_id"`
	Stage    string `json:"stage"`
}

// MoveResponse is the result of move_client.
type MoveResponse struct {
	ClientID string       `json:"client_id"`
	Stage    domain.Stage `json:"stage" jsonschema_description:"Stage after the move"`
	Version  int64        `json:"version"`
}

// Server exposes the services as an MCP Server.
type Server struct {
	pipeline  *pipeline.Service
	clients   *clients.Service
	actor     string
	version   string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

// WithActor sets the author recorded for moves made through MCP.
func WithActor(name string) Option {
	return func(s *Server) {
		s.actor = name
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
// The clients service backs read-only tools and may wrap a masked store.
func NewServer(pipe *pipeline.Service, cs *clients.Service, opts ...Option) *Server {
	s := &Server{
		pipeline: pipe,
		clients:  cs,
		actor:    DefaultActor,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("brokerdesk-mcp", s.version)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
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
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_stages",
		mcp.WithDescription("List the stages of a pipeline with their allowed transitions."),
		mcp.WithString("pipeline_id", mcp.Description("Pipeline id (optional, defaults to the default pipeline)")),
		mcp.WithOutputSchema[StagesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListStages))

	s.mcpServer.AddTool(mcp.NewTool("get_board",
		mcp.WithDescription("Get the kanban board of an organization: non-archived clients grouped by stage."),
		mcp.WithString("org_id", mcp.Required(), mcp.Description("Organization id")),
		mcp.WithString("pipeline_id", mcp.Description("Pipeline id (optional)")),
		mcp.WithOutputSchema[BoardResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetBoard))

	s.mcpServer.AddTool(mcp.NewTool("move_client",
		mcp.WithDescription("Move a client to another stage. Only transitions allowed by the stage graph succeed."),
		mcp.WithString("org_id", mcp.Required(), mcp.Description("Organization id")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("stage", mcp.Required(), mcp.Description("Target stage id")),
		mcp.WithOutputSchema[MoveResponse](),
	), mcp.NewStructuredToolHandler(s.handleMoveClient))
}

func (s *Server) handleListStages(ctx context.Context, request mcp.CallToolRequest, args StagesArgs) (StagesResponse, error) {
	p, err := s.pipeline.Registry().Resolve(args.PipelineID)
	if err != nil {
		return StagesResponse{}, err
	}
	return StagesResponse{
		PipelineID: p.Definition.ID,
		Stages:     p.Graph.AllStages(),
	}, nil
}

func (s *Server) handleGetBoard(ctx context.Context, request mcp.CallToolRequest, args BoardArgs) (BoardResponse, error) {
	if args.OrgID == "" {
		return BoardResponse{}, fmt.Errorf("org_id is required")
	}
	b, err := s.clients.Board(ctx, args.OrgID, args.PipelineID)
	if err != nil {
		return BoardResponse{}, fmt.Errorf("board failed: %w", err)
	}

	resp := BoardResponse{PipelineID: b.PipelineID, Columns: make([]BoardColumn, 0, len(b.Columns))}
	for _, col := range b.Columns {
		bc := BoardColumn{Stage: col.Stage.ID, Title: col.Stage.Title, Clients: make([]BoardClient, 0, len(col.Clients))}
		for _, c := range col.Clients {
			bc.Clients = append(bc.Clients, BoardClient{ID: c.ID, Name: c.PersonalInfo.DisplayName(), Status: c.Status})
		}
		resp.Columns = append(resp.Columns, bc)
	}
	return resp, nil
}

func (s *Server) handleMoveClient(ctx context.Context, request mcp.CallToolRequest, args MoveArgs) (MoveResponse, error) {
	ctx = identity.WithActor(ctx, s.actor)
	c, err := s.pipeline.MoveClientToStage(ctx, args.OrgID, args.ClientID, domain.Stage(args.Stage))
	if err != nil {
		s.logger.Debug("move_client rejected", "client_id", args.ClientID, "stage", args.Stage, "error", err)
		return MoveResponse{}, fmt.Errorf("move failed: %w", err)
	}
	return MoveResponse{ClientID: c.ID, Stage: c.PipelineStage, Version: c.Version}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("brokerdesk://pipelines", "Pipeline Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list := s.pipeline.Registry().List()
		defs := make([]domain.CustomPipeline, 0, len(list))
		for _, p := range list {
			defs = append(defs, p.Definition)
		}
		jsonBytes, err := json.Marshal(defs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pipelines: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "brokerdesk://pipelines",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
