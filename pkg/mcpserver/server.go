// Package mcpserver exposes the skill repository to tool-calling
// clients over the Model Context Protocol. It is the composition root
// for the MCP surface: tool definitions, handlers, and the stdio
// transport. All business rules live in pkg/skills; handlers only
// translate between the protocol and the repository contract.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/geodocs/skillserve/pkg/logger"
	"github.com/geodocs/skillserve/pkg/skills"
	"github.com/geodocs/skillserve/pkg/version"
)

const serverName = "skillserve"

const instructions = `skillserve serves GIS documentation skills: named bundles of
instructions with supporting SQL scripts, reference docs and assets.

Call list_skills to see the catalog, get_skill to load a skill's
instructions, and read_skill_file to fetch a supporting file. Valid file
paths are "SKILL.md" or "<subdir>/<filename>" where subdir is one of
scripts, references, assets.`

// Server wires the skill repository into an MCP server instance.
type Server struct {
	repo *skills.Repository
	mcp  *server.MCPServer
}

// New creates the MCP server with all skill tools registered.
func New(repo *skills.Repository) *Server {
	s := &Server{
		repo: repo,
		mcp: server.NewMCPServer(
			serverName,
			version.Get().Version,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
	}

	s.mcp.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List all available skills with their descriptions and files"),
	), s.handleListSkills)

	s.mcp.AddTool(mcp.NewTool("get_skill",
		mcp.WithDescription("Load a skill's instructions by name"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The name of the skill to load"),
		),
	), s.handleGetSkill)

	s.mcp.AddTool(mcp.NewTool("read_skill_file",
		mcp.WithDescription("Read a supporting file of a skill. Valid paths are SKILL.md or <subdir>/<filename> with subdir one of scripts, references, assets"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The name of the skill"),
		),
		mcp.WithString("path",
			mcp.Description("Skill-relative file path, defaults to SKILL.md"),
		),
	), s.handleReadSkillFile)

	s.mcp.AddTool(mcp.NewTool("reload_skills",
		mcp.WithDescription("Force a reload of the skill registry from disk and report the result"),
	), s.handleReloadSkills)

	return s
}

// ServeStdio runs the server on stdin/stdout until the context is
// cancelled or the client closes the stream. Logs go to stderr; stdout
// carries only protocol frames.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(logger.L.Logger.Writer(), "", 0))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Reload forces a registry reload, used by the filesystem watcher.
func (s *Server) Reload(ctx context.Context) *skills.Snapshot {
	return s.repo.Load(ctx, true)
}

func (s *Server) handleListSkills(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := s.repo.List(ctx)
	if len(catalog) == 0 {
		return mcp.NewToolResultText("No skills are currently available."), nil
	}

	var sb strings.Builder
	sb.WriteString("# Available Skills\n\n")
	for _, skill := range catalog {
		sb.WriteString(fmt.Sprintf("## %s\n", skill.Name))
		sb.WriteString(fmt.Sprintf("- **Description**: %s\n", skill.Description))
		sb.WriteString(fmt.Sprintf("- **Files**: %s\n\n", strings.Join(skill.AvailableFiles, ", ")))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetSkill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	skill, err := s.repo.Lookup(ctx, name)
	if err != nil {
		return toolError(err), nil
	}

	content, err := s.repo.ReadContent(ctx, name, skills.MainFileName)
	if err != nil {
		return toolError(err), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Skill: %s\n\n", skill.Name))
	sb.WriteString(fmt.Sprintf("%s\n\n", skill.Description))
	if len(skill.AvailableFiles) > 1 {
		sb.WriteString(fmt.Sprintf("Supporting files (fetch with read_skill_file): %s\n\n",
			strings.Join(skill.AvailableFiles[1:], ", ")))
	}
	sb.WriteString("## Instructions\n\n")
	sb.WriteString(content)

	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleReadSkillFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := request.GetString("path", skills.MainFileName)

	content, err := s.repo.ReadContent(ctx, name, path)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(content), nil
}

func (s *Server) handleReloadSkills(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.Reload(ctx)

	summary := struct {
		Loaded  int      `json:"loaded"`
		Skipped int      `json:"skipped"`
		Failed  int      `json:"failed"`
		Skills  []string `json:"skills"`
	}{
		Loaded:  snap.Report.Loaded(),
		Skipped: snap.Report.Skipped(),
		Failed:  snap.Report.Failed(),
	}
	for _, skill := range s.repo.List(ctx) {
		summary.Skills = append(summary.Skills, skill.Name)
	}

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// toolError translates the repository error taxonomy into an MCP error
// result. The rejection reason is surfaced verbatim; only the category
// prefix is added.
func toolError(err error) *mcp.CallToolResult {
	var invalidPath *skills.InvalidPathError
	var readFailure *skills.ReadFailureError

	switch {
	case errors.Is(err, skills.ErrSkillNotFound), errors.Is(err, skills.ErrFileNotDeclared):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err))
	case errors.As(err, &invalidPath):
		return mcp.NewToolResultError(fmt.Sprintf("invalid path: %v", err))
	case errors.As(err, &readFailure):
		return mcp.NewToolResultError(fmt.Sprintf("read failure: %v", err))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
