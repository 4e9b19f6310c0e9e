package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/frontdeskhq/frontdesk/internal/agent"
	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
)

// handleAskQuestion runs one conversation turn through the engine.
func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		sessionID = "mcp-" + uuid.New().String()
	}

	reply := s.engine.ProcessMessage(ctx, message, sessionID, agent.CallerInfo{Name: "MCP Client"})

	var sb strings.Builder
	sb.WriteString(reply.Answer)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Source: %s\n", reply.Source)
	fmt.Fprintf(&sb, "Confidence: %.2f\n", reply.Confidence)
	fmt.Fprintf(&sb, "Session: %s\n", sessionID)
	if reply.NeedsHelp {
		sb.WriteString("Escalated to a human supervisor.\n")
		if reply.RequestID != "" {
			fmt.Fprintf(&sb, "Help request id: %s\n", reply.RequestID)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchKnowledge searches the corpus directly.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	match, err := s.knowledge.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if match == nil {
		return mcp.NewToolResultText("No entry clears the relevance floor for that query."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Q: %s\n", match.Question)
	fmt.Fprintf(&sb, "A: %s\n\n", match.Answer)
	fmt.Fprintf(&sb, "Relevance: %.2f\n", match.RelevanceScore)
	fmt.Fprintf(&sb, "Category: %s\n", match.Category)
	fmt.Fprintf(&sb, "Source: %s\n", match.Source)
	fmt.Fprintf(&sb, "Used %d time(s)\n", match.UseCount)
	return mcp.NewToolResultText(sb.String()), nil
}

// handleListPending lists requests waiting on a supervisor.
func (s *Server) handleListPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	requests, err := s.helpdesk.GetAll(ctx, helpdesk.ListFilter{
		Status: helpdesk.StatusPending,
		Limit:  limit,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing requests failed: %v", err)), nil
	}
	if len(requests) == 0 {
		return mcp.NewToolResultText("No pending help requests."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d pending request(s):\n", len(requests))
	for i, r := range requests {
		fmt.Fprintf(&sb, "\n--- Request %d ---\n", i+1)
		fmt.Fprintf(&sb, "ID: %s\n", r.ID)
		fmt.Fprintf(&sb, "Question: %s\n", r.Question)
		fmt.Fprintf(&sb, "Caller: %s (%s)\n", r.CallerName, r.CallerPhone)
		fmt.Fprintf(&sb, "Created: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&sb, "Times out: %s\n", r.TimeoutAt.Format("2006-01-02 15:04:05 MST"))
		if r.Context != "" {
			fmt.Fprintf(&sb, "Context:\n%s\n", r.Context)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
