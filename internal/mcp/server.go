// Package mcp serves the decision pipeline as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/plo/internal/audit"
	"github.com/ppiankov/plo/internal/config"
	"github.com/ppiankov/plo/internal/core"
)

// Config holds MCP server configuration. Settings, when set, is used as is
// and ConfigPath is ignored.
type Config struct {
	ConfigPath   string
	Settings     *config.Config
	AuditLogPath string
	Version      string
}

// Server wraps the MCP SDK server around the evaluation pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	cfg       *config.Config
	auditLog  *audit.Log
}

// New loads the configuration, opens the journal if requested and
// registers the tools.
func New(opts Config) (*Server, error) {
	cfg := opts.Settings
	if cfg == nil {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	var auditLog *audit.Log
	if opts.AuditLogPath != "" {
		var err error
		auditLog, err = audit.Open(opts.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{cfg: cfg, auditLog: auditLog}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "plo",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the audit log if configured.
func (s *Server) Close() error {
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

func (s *Server) recordAudit(e core.Evaluation) {
	if s.auditLog == nil {
		return
	}
	if err := s.auditLog.Record(audit.NewEntry(e, audit.ChannelMCP, s.cfg.Hash())); err != nil {
		fmt.Fprintf(os.Stderr, "mcp: %v\n", err)
	}
}

// registerTools adds all plo tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plo_evaluate",
		Description: "Classify load metrics and return the operating state, derived authority, active rules and recovery readiness.",
	}, s.handleEvaluate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plo_advise",
		Description: "Run non-binding planning analysis over tasks. Returns a blocked notice when the current state denies planning.",
	}, s.handleAdvise)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "plo_execute",
		Description: "Request execution of an action. Execution is disabled in this version and always returns an error with the reason.",
	}, s.handleExecute)
}
