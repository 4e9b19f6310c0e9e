package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askQuestionTool defines the ask_question MCP tool.
var askQuestionTool = mcp.NewTool("ask_question",
	mcp.WithDescription("Ask the receptionist a question as a caller would. Strong corpus matches answer immediately; anything else escalates to a human supervisor."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The caller's question"),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation session id; reuse it to keep conversation context"),
	),
)

// searchKnowledgeTool defines the search_knowledge MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Search the knowledge corpus for the best matching entry, exactly as the receptionist would."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Question text to match against stored entries"),
	),
)

// listPendingTool defines the list_pending_requests MCP tool.
var listPendingTool = mcp.NewTool("list_pending_requests",
	mcp.WithDescription("List help requests currently waiting for a supervisor answer."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of requests to return (default 20)"),
	),
)
