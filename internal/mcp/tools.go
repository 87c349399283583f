package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Search the HTML documents for a keyword (case-insensitive substring). Returns file paths, line numbers, snippets and links that highlight the match."),
	mcp.WithString("keyword",
		mcp.Required(),
		mcp.Description("Literal keyword to find; any language"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of matches to return (default 20)"),
	),
)

// readDocumentTool defines the read_document MCP tool.
var readDocumentTool = mcp.NewTool("read_document",
	mcp.WithDescription("Read lines of an HTML document, optionally centred on a line number returned by search_documents."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the document relative to the document root"),
	),
	mcp.WithNumber("line",
		mcp.Description("1-based line to centre on (default: start of document)"),
	),
	mcp.WithNumber("context",
		mcp.Description("Lines of context either side of line (default 5)"),
	),
)
