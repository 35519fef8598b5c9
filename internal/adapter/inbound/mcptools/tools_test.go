package mcptools_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/oasmeta/internal/adapter/inbound/mcptools"
	"github.com/i2y/oasmeta/internal/adapter/outbound/memrepo"
	"github.com/i2y/oasmeta/internal/domain"
	"github.com/i2y/oasmeta/internal/oas"
	"github.com/i2y/oasmeta/internal/usecase"
)

type stubDocumentSource struct {
	doc domain.Document
}

func (s *stubDocumentSource) Fetch(ctx context.Context, source domain.Source) (domain.Document, error) {
	return s.doc, nil
}

func newTestTools(t *testing.T) *mcptools.Tools {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "testdata", "openapi.json"))
	require.NoError(t, err)
	var root any
	require.NoError(t, json.Unmarshal(data, &root))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	repo := memrepo.NewInMemorySourceRepository(logger)
	uc := usecase.NewResolveMetadataUseCase(repo, &stubDocumentSource{doc: domain.Document{Root: root}}, oas.NewBuilder(logger), logger)
	require.NoError(t, uc.RegisterSources(context.Background(), []domain.Source{
		{Name: "widgets", SpecURL: "http://localhost:8080/o/headless-widgets/v1.0/openapi.json"},
	}))
	return mcptools.New(uc, logger)
}

func call(t *testing.T, tools *mcptools.Tools, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, st := range tools.ServerTools() {
		if st.Tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := st.Handler(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res)
		return res
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func TestTools(t *testing.T) {
	tools := newTestTools(t)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		wantErr bool
		check   func(t *testing.T, text string)
	}{
		{
			name: "list sources",
			tool: mcptools.ToolListSources,
			check: func(t *testing.T, text string) {
				assert.Contains(t, text, `"name": "widgets"`)
			},
		},
		{
			name: "list endpoints for post",
			tool: mcptools.ToolListEndpoints,
			args: map[string]any{"source": "widgets", "operation": "post"},
			check: func(t *testing.T, text string) {
				assert.JSONEq(t, `["/widgets"]`, text)
			},
		},
		{
			name: "list class names",
			tool: mcptools.ToolListClassNames,
			args: map[string]any{"source": "widgets"},
			check: func(t *testing.T, text string) {
				assert.JSONEq(t, `["com.example.Entity","com.example.NestedEntity"]`, text)
			},
		},
		{
			name: "describe input type",
			tool: mcptools.ToolDescribeType,
			args: map[string]any{"source": "widgets", "endpoint": "/widgets", "operation": "post", "direction": "input"},
			check: func(t *testing.T, text string) {
				var typ domain.Type
				require.NoError(t, json.Unmarshal([]byte(text), &typ))
				assert.Equal(t, "Widget", typ.Label)
				assert.True(t, typ.Fields["name"].Required)
			},
		},
		{
			name: "describe output type by default",
			tool: mcptools.ToolDescribeType,
			args: map[string]any{"source": "widgets", "endpoint": "/gadgets", "operation": "get"},
			check: func(t *testing.T, text string) {
				var typ domain.Type
				require.NoError(t, json.Unmarshal([]byte(text), &typ))
				assert.Equal(t, domain.KindArray, typ.Kind)
				assert.Equal(t, "Gadget", typ.Elem.Label)
			},
		},
		{
			name: "describe batch type",
			tool: mcptools.ToolDescribeBatchType,
			args: map[string]any{"source": "widgets", "class_name": "com.example.Entity"},
			check: func(t *testing.T, text string) {
				var typ domain.Type
				require.NoError(t, json.Unmarshal([]byte(text), &typ))
				assert.Equal(t, "Entity", typ.Elem.Label)
			},
		},
		{
			name:    "missing required argument",
			tool:    mcptools.ToolDescribeType,
			args:    map[string]any{"source": "widgets", "endpoint": "/widgets"},
			wantErr: true,
		},
		{
			name:    "invalid direction",
			tool:    mcptools.ToolDescribeType,
			args:    map[string]any{"source": "widgets", "endpoint": "/widgets", "operation": "post", "direction": "up"},
			wantErr: true,
		},
		{
			name:    "unknown source",
			tool:    mcptools.ToolListClassNames,
			args:    map[string]any{"source": "nope"},
			wantErr: true,
			check: func(t *testing.T, text string) {
				assert.Contains(t, text, domain.ErrSourceNotFound.Error())
			},
		},
		{
			name:    "schema resolution failure",
			tool:    mcptools.ToolDescribeType,
			args:    map[string]any{"source": "widgets", "endpoint": "/broken", "operation": "get"},
			wantErr: true,
			check: func(t *testing.T, text string) {
				assert.Contains(t, text, "schema resolution failure")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, tools, tt.tool, tt.args)
			assert.Equal(t, tt.wantErr, res.IsError)
			if tt.check != nil {
				tt.check(t, resultText(t, res))
			}
		})
	}
}

func TestTools_Register(t *testing.T) {
	tools := newTestTools(t)
	srv := server.NewMCPServer("oasmeta-test", "0.0.0", server.WithToolCapabilities(false))

	assert.NotPanics(t, func() { tools.Register(srv) })

	names := make([]string, 0)
	for _, st := range tools.ServerTools() {
		names = append(names, st.Tool.Name)
	}
	assert.ElementsMatch(t, []string{
		mcptools.ToolListSources,
		mcptools.ToolListEndpoints,
		mcptools.ToolListClassNames,
		mcptools.ToolDescribeType,
		mcptools.ToolDescribeBatchType,
	}, names)
}
