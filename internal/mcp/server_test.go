package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"phmagent/internal"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, srv *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func newTestServer(t *testing.T) *Server {
	cols, rows := fixture()
	return NewServer(&ServerConfig{
		Handlers: newHandlers(t, cols, rows),
		Logger:   internal.NewLogger(internal.LogLevelError),
	})
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, newTestServer(t))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"get_vibration_all_on_date",
		"get_vibration_max_on_date",
		"find_vibration_outliers_on_date",
		"analyze_vibration_list",
		"calculate_sum",
		"get_current_time",
		"get_weather",
		"add",
	}, names)
}

func TestServer_CallOutliers(t *testing.T) {
	session := connect(t, newTestServer(t))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "find_vibration_outliers_on_date",
		Arguments: map[string]any{"date": "2025-07-25", "threshold": 1.0},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out OutliersOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "VibrationX", out.ValueColumn)
}

func TestServer_ToolErrorIsReported(t *testing.T) {
	session := connect(t, newTestServer(t))

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_vibration_max_on_date",
		Arguments: map[string]any{"date": "2025-07-26"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "NO_DATA")
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0"}`, w.Body.String())
}
