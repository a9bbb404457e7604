package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/internal/service/analysis"
	"github.com/panbanda/pyreview/internal/testutil"
	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
)

func newTestServer(t *testing.T, runner *testutil.FakeRunner) (*Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.InputDir = filepath.Join(dir, "inputs")
	cfg.Paths.OutputDir = filepath.Join(dir, "outputs")
	cfg.Paths.ReportDir = filepath.Join(dir, "reports")
	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithRunner(runner))
	return NewServer("1.0.0-test", svc, nil), cfg
}

func styleOnly() *testutil.FakeRunner {
	return testutil.NewFakeRunner().Stdout("flake8", "3:1:E302:expected 2 blank lines, found 1\n")
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return text.Text
}

func TestServerCreation(t *testing.T) {
	s, _ := newTestServer(t, styleOnly())
	assert.NotNil(t, s.server)

	s = NewServer("", analysis.New(analysis.WithConfig(config.DefaultConfig())), nil)
	assert.NotNil(t, s)
}

func TestToolDescriptions(t *testing.T) {
	for name, fn := range map[string]func() string{
		"analyze_file": describeAnalyzeFile,
		"format_file":  describeFormatFile,
		"get_report":   describeGetReport,
	} {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			assert.Contains(t, desc, "USE WHEN:")
			assert.Contains(t, desc, "INTERPRETING RESULTS:")
			assert.Contains(t, desc, "METRICS RETURNED:")
		})
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		in   string
		want output.Format
	}{
		{"", output.FormatTOON},
		{"text", output.FormatTOON},
		{"toon", output.FormatTOON},
		{"json", output.FormatJSON},
		{"md", output.FormatMarkdown},
		{"yaml", output.FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, getFormat(tt.in))
		})
	}
}

func TestToolError(t *testing.T) {
	result, out, err := toolError("boom")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", resultText(t, result))
}

func TestHandleAnalyzeFile(t *testing.T) {
	ctx := context.Background()

	t.Run("json", func(t *testing.T) {
		s, cfg := newTestServer(t, styleOnly())
		path := testutil.WritePython(t, t.TempDir(), "tower.py")

		result, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: path, Format: "json"})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		var r models.AnalysisReport
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &r))
		assert.Equal(t, "tower.py", r.SourceFile)
		assert.True(t, r.Issues.OK())
		assert.False(t, r.Complexity.OK())
		assert.NoFileExists(t, filepath.Join(cfg.Paths.ReportDir, "report_tower.json"))
	})

	t.Run("toon by default", func(t *testing.T) {
		s, _ := newTestServer(t, styleOnly())
		path := testutil.WritePython(t, t.TempDir(), "tower.py")

		result, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: path})
		require.NoError(t, err)
		text := resultText(t, result)
		assert.Contains(t, text, "source_file: tower.py")
		assert.False(t, strings.HasPrefix(text, "{"))
	})

	t.Run("markdown", func(t *testing.T) {
		s, _ := newTestServer(t, styleOnly())
		path := testutil.WritePython(t, t.TempDir(), "tower.py")

		result, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: path, Format: "markdown"})
		require.NoError(t, err)
		assert.Contains(t, resultText(t, result), "E302")
	})

	t.Run("save", func(t *testing.T) {
		s, cfg := newTestServer(t, styleOnly())
		path := testutil.WritePython(t, t.TempDir(), "tower.py")

		_, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: path, Save: true})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(cfg.Paths.ReportDir, "report_tower.json"))
	})

	t.Run("bad input", func(t *testing.T) {
		s, _ := newTestServer(t, styleOnly())
		dir := t.TempDir()
		notes := filepath.Join(dir, "notes.txt")
		testutil.WriteFile(t, notes, "hi\n")

		for _, p := range []string{"", filepath.Join(dir, "missing.py"), notes, dir} {
			result, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: p})
			require.NoError(t, err)
			assert.True(t, result.IsError, "path %q", p)
		}
	})

	t.Run("bare file name and glob", func(t *testing.T) {
		s, _ := newTestServer(t, styleOnly())
		dir := t.TempDir()
		testutil.WritePython(t, filepath.Join(dir, "pkg"), "tower.py")
		testutil.WritePython(t, filepath.Join(dir, "lib"), "tower.py")
		t.Chdir(dir)

		result, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: "pkg/*.py", Format: "json"})
		require.NoError(t, err)
		assert.False(t, result.IsError, resultText(t, result))

		result, _, err = s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: "tower.py"})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "ambiguous match")
	})
}

func TestHandleFormatFile(t *testing.T) {
	ctx := context.Background()
	formatted := "x = 1\n"
	blackRunner := func() *testutil.FakeRunner {
		return testutil.NewFakeRunner().On("black", testutil.Response{Rewrite: &formatted})
	}

	t.Run("copy to default dest", func(t *testing.T) {
		s, cfg := newTestServer(t, blackRunner())
		path := testutil.WritePython(t, t.TempDir(), "app.py", "x=1\n")

		result, _, err := s.handleFormatFile(ctx, nil, FormatFileInput{Path: path})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		dest := filepath.Join(cfg.Paths.OutputDir, "formatted_app.py")
		assert.Equal(t, formatted, testutil.ReadFile(t, dest))
		assert.Equal(t, "x=1\n", testutil.ReadFile(t, path))
	})

	t.Run("explicit dest", func(t *testing.T) {
		s, _ := newTestServer(t, blackRunner())
		dir := t.TempDir()
		path := testutil.WritePython(t, dir, "app.py", "x=1\n")
		dest := filepath.Join(dir, "out", "pretty.py")

		result, _, err := s.handleFormatFile(ctx, nil, FormatFileInput{Path: path, Dest: dest})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, formatted, testutil.ReadFile(t, dest))
	})

	t.Run("in place", func(t *testing.T) {
		s, _ := newTestServer(t, blackRunner())
		path := testutil.WritePython(t, t.TempDir(), "app.py", "x=1\n")

		result, _, err := s.handleFormatFile(ctx, nil, FormatFileInput{Path: path, InPlace: true})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, formatted, testutil.ReadFile(t, path))
	})

	t.Run("dest equals source", func(t *testing.T) {
		s, _ := newTestServer(t, blackRunner())
		path := testutil.WritePython(t, t.TempDir(), "app.py", "x=1\n")

		result, _, err := s.handleFormatFile(ctx, nil, FormatFileInput{Path: path, Dest: path})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "is the source file")
		assert.Equal(t, "x=1\n", testutil.ReadFile(t, path))
	})

	t.Run("formatter missing", func(t *testing.T) {
		s, _ := newTestServer(t, testutil.NewFakeRunner())
		path := testutil.WritePython(t, t.TempDir(), "app.py")

		result, _, err := s.handleFormatFile(ctx, nil, FormatFileInput{Path: path})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "not installed")
	})
}

func TestHandleGetReport(t *testing.T) {
	ctx := context.Background()
	s, cfg := newTestServer(t, styleOnly())
	path := testutil.WritePython(t, t.TempDir(), "tower.py")
	_, _, err := s.handleAnalyzeFile(ctx, nil, AnalyzeFileInput{Path: path, Save: true})
	require.NoError(t, err)

	for _, name := range []string{"report_tower", "report_tower.json"} {
		result, _, err := s.handleGetReport(ctx, nil, GetReportInput{Name: name, Format: "json"})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		var r models.AnalysisReport
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &r))
		assert.Equal(t, "tower.py", r.SourceFile)
	}

	result, _, err := s.handleGetReport(ctx, nil, GetReportInput{Name: "report_missing"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")

	result, _, err = s.handleGetReport(ctx, nil, GetReportInput{Name: "../etc/passwd"})
	require.NoError(t, err)
	assert.True(t, result.IsError)

	testutil.WriteFile(t, filepath.Join(cfg.Paths.ReportDir, "report_bad.json"), `{"issues": 1}`)
	result, _, err = s.handleGetReport(ctx, nil, GetReportInput{Name: "report_bad"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestParseFrontmatter(t *testing.T) {
	content := []byte("---\ndescription: Do things\narguments:\n  - name: path\n    required: true\n---\nBody {{path}}\n")
	fm, body := parseFrontmatter(content)
	assert.Equal(t, "Do things", fm.Description)
	require.Len(t, fm.Arguments, 1)
	assert.Equal(t, "path", fm.Arguments[0].Name)
	assert.True(t, fm.Arguments[0].Required)
	assert.Equal(t, "Body {{path}}\n", body)

	fm, body = parseFrontmatter([]byte("no frontmatter"))
	assert.Empty(t, fm.Description)
	assert.Equal(t, "no frontmatter", body)
}

func TestPromptHandler(t *testing.T) {
	content, err := promptFiles.ReadFile("prompts/review-file.md")
	require.NoError(t, err)
	fm, body := parseFrontmatter(content)
	require.NotEmpty(t, fm.Description)

	handler := makePromptHandler(fm.Description, body)
	result, err := handler(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{
			Name:      "review-file",
			Arguments: map[string]string{"path": "src/app.py"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, mcp.Role("user"), result.Messages[0].Role)

	text := result.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "`src/app.py`")
	assert.NotContains(t, text, "{{path}}")
}

func TestClientSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestServer(t, styleOnly())
	path := testutil.WritePython(t, t.TempDir(), "tower.py")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := s.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_file", "format_file", "get_report"}, names)

	result, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "analyze_file",
		Arguments: map[string]any{"path": path, "format": "json"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"source_file": "tower.py"`)

	prompts, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, prompts.Prompts, 1)
	assert.Equal(t, "review-file", prompts.Prompts[0].Name)
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Packages, 1)
	assert.Equal(t, "ghcr.io/panbanda/pyreview:1.2.3", m.Packages[0].Identifier)
	assert.Equal(t, "stdio", m.Packages[0].Transport.Type)

	data, err = GenerateManifest("")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "0.0.0"`)
}
