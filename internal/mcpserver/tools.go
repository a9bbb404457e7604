package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/pyreview/internal/locator"
	"github.com/panbanda/pyreview/internal/output"
	"github.com/panbanda/pyreview/internal/storage"
	"github.com/panbanda/pyreview/pkg/models"
	"github.com/panbanda/pyreview/pkg/parser"
)

// AnalyzeFileInput selects the file to review.
type AnalyzeFileInput struct {
	Path   string `json:"path" jsonschema:"Python file to analyze."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
	Save   bool   `json:"save,omitempty" jsonschema:"Also store the report in the report directory."`
}

// FormatFileInput selects the file to format and where the result goes.
type FormatFileInput struct {
	Path    string `json:"path" jsonschema:"Python file to format."`
	Dest    string `json:"dest,omitempty" jsonschema:"Where to write the formatted copy. Defaults to <output_dir>/formatted_<name>."`
	InPlace bool   `json:"in_place,omitempty" jsonschema:"Rewrite the file itself instead of writing a copy."`
}

// GetReportInput names a stored report.
type GetReportInput struct {
	Name   string `json:"name" jsonschema:"Report name, e.g. report_app or report_app.json."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

// getFormat maps the requested format to an output format. Plain text is
// meant for terminals, so it falls back to TOON like an empty value.
func getFormat(s string) output.Format {
	f := output.ParseFormat(s)
	if f == output.FormatText {
		return output.FormatTOON
	}
	return f
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// resolveSource turns the path argument into an existing Python file. A
// glob or bare file name is accepted when it matches exactly one file.
func (s *Server) resolveSource(target string) (string, error) {
	if target == "" {
		return "", errors.New("path is required")
	}
	path, err := locator.Locate(target, locator.WithExclude(s.svc.Config().ShouldExclude))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	if !parser.IsPython(path) {
		return "", fmt.Errorf("%s is not a Python file", path)
	}
	return path, nil
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeFileInput) (*mcp.CallToolResult, any, error) {
	path, err := s.resolveSource(input.Path)
	if err != nil {
		return toolError(err.Error())
	}

	r, err := s.svc.Analyze(ctx, path)
	if err != nil {
		return toolError(err.Error())
	}

	var saved string
	if input.Save {
		saved, err = s.svc.Store().Save(r)
		if err != nil {
			s.logger.Warn("report not saved", "file", path, "error", err)
		}
	}
	return toolResult(output.NewReportView(r, saved), getFormat(input.Format))
}

func (s *Server) handleFormatFile(ctx context.Context, req *mcp.CallToolRequest, input FormatFileInput) (*mcp.CallToolResult, any, error) {
	path, err := s.resolveSource(input.Path)
	if err != nil {
		return toolError(err.Error())
	}

	f := s.svc.Formatter()
	var result models.FormattingResult
	if input.InPlace {
		result = f.FormatInPlace(ctx, path)
	} else {
		dest := input.Dest
		if dest == "" {
			dest = s.svc.FormattedPath(path)
		}
		result = f.FormatSnapshot(ctx, path, dest)
	}

	text, err := formatOutput(result, output.FormatTOON)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: !result.Succeeded,
	}, nil, nil
}

func (s *Server) handleGetReport(ctx context.Context, req *mcp.CallToolRequest, input GetReportInput) (*mcp.CallToolResult, any, error) {
	path, err := s.svc.Store().Resolve(input.Name)
	if err != nil {
		return toolError(err.Error())
	}
	r, err := storage.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return toolError(fmt.Sprintf("report %s not found", filepath.Base(path)))
		}
		return toolError(err.Error())
	}
	return toolResult(output.NewReportView(r, path), getFormat(input.Format))
}
