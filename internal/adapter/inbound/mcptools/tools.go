// Package mcptools exposes metadata resolution as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/i2y/oasmeta/internal/usecase"
)

// Tool names.
const (
	ToolListSources       = "list_sources"
	ToolListEndpoints     = "list_endpoints"
	ToolListClassNames    = "list_class_names"
	ToolDescribeType      = "describe_type"
	ToolDescribeBatchType = "describe_batch_type"
)

// Tools builds the MCP tool set backed by a metadata resolver.
type Tools struct {
	resolver usecase.MetadataResolver
	logger   *slog.Logger
}

// New creates a new Tools.
func New(resolver usecase.MetadataResolver, logger *slog.Logger) *Tools {
	return &Tools{
		resolver: resolver,
		logger:   logger.With("component", "mcp_tools"),
	}
}

// Register adds every tool to the MCP server.
func (t *Tools) Register(s *server.MCPServer) {
	tools := t.ServerTools()
	s.AddTools(tools...)
	t.logger.Info("Registered MCP tools", slog.Int("count", len(tools)))
}

// ServerTools returns the tool definitions paired with their handlers.
func (t *Tools) ServerTools() []server.ServerTool {
	sourceArg := mcp.WithString("source",
		mcp.Required(),
		mcp.Description("Name of the configured source, as returned by "+ToolListSources))

	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolListSources,
				mcp.WithDescription("List the configured OpenAPI sources"),
			),
			Handler: t.listSources,
		},
		{
			Tool: mcp.NewTool(ToolListEndpoints,
				mcp.WithDescription("List the endpoints of a source, optionally only those declaring an operation"),
				sourceArg,
				mcp.WithString("operation",
					mcp.Description("HTTP operation such as get, post, patch or delete; empty lists every endpoint")),
			),
			Handler: t.listEndpoints,
		},
		{
			Tool: mcp.NewTool(ToolListClassNames,
				mcp.WithDescription("List the x-class-name values declared by the schemas of a source"),
				sourceArg,
			),
			Handler: t.listClassNames,
		},
		{
			Tool: mcp.NewTool(ToolDescribeType,
				mcp.WithDescription("Resolve the fully expanded input or output type of an operation"),
				sourceArg,
				mcp.WithString("endpoint", mcp.Required(), mcp.Description("Path template, e.g. /widgets/{id}")),
				mcp.WithString("operation", mcp.Required(), mcp.Description("HTTP operation, e.g. get")),
				mcp.WithString("direction",
					mcp.Description("input for the request body, output for the default response"),
					mcp.Enum(string(usecase.DirectionInput), string(usecase.DirectionOutput)),
					mcp.DefaultString(string(usecase.DirectionOutput))),
			),
			Handler: t.describeType,
		},
		{
			Tool: mcp.NewTool(ToolDescribeBatchType,
				mcp.WithDescription("Resolve the array type used for batch operations on a class"),
				sourceArg,
				mcp.WithString("class_name", mcp.Required(), mcp.Description("Fully qualified x-class-name value")),
			),
			Handler: t.describeBatchType,
		},
	}
}

func (t *Tools) listSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := t.resolver.Sources(ctx)
	if err != nil {
		return t.failure(ToolListSources, err), nil
	}
	views := usecase.NewSourceViews(sources)
	return t.success(views)
}

func (t *Tools) listEndpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	endpoints, err := t.resolver.Endpoints(ctx, source, request.GetString("operation", ""))
	if err != nil {
		return t.failure(ToolListEndpoints, err), nil
	}
	return t.success(endpoints)
}

func (t *Tools) listClassNames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names, err := t.resolver.ClassNames(ctx, source)
	if err != nil {
		return t.failure(ToolListClassNames, err), nil
	}
	return t.success(names)
}

func (t *Tools) describeType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args [3]string
	for i, name := range []string{"source", "endpoint", "operation"} {
		v, err := request.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args[i] = v
	}
	dir, err := usecase.ParseDirection(request.GetString("direction", string(usecase.DirectionOutput)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	typ, err := t.resolver.TypeFor(ctx, args[0], args[1], args[2], dir)
	if err != nil {
		return t.failure(ToolDescribeType, err), nil
	}
	return t.success(typ)
}

func (t *Tools) describeBatchType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	className, err := request.RequireString("class_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := t.resolver.BatchType(ctx, source, className)
	if err != nil {
		return t.failure(ToolDescribeBatchType, err), nil
	}
	return t.success(typ)
}

func (t *Tools) success(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// failure reports use case errors as tool errors so the client sees the message.
func (t *Tools) failure(tool string, err error) *mcp.CallToolResult {
	t.logger.Warn("Tool call failed", slog.String("tool", tool), slog.Any("error", err))
	return mcp.NewToolResultError(err.Error())
}
