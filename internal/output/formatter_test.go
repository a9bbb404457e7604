package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/panbanda/pyreview/pkg/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"TEXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFormat(tt.input)
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidFormat(t *testing.T) {
	for _, s := range []string{"text", "json", "markdown", "md", "toon", "yaml", "yml", "JSON"} {
		if !ValidFormat(s) {
			t.Errorf("ValidFormat(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "xml", "html"} {
		if ValidFormat(s) {
			t.Errorf("ValidFormat(%q) = true, want false", s)
		}
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	f, err := NewFormatter(FormatJSON, path, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("colors should be disabled when writing to a file")
	}
	if err := f.Output(map[string]int{"a": 1}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"a": 1`) {
		t.Errorf("file content = %s", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	_, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false)
	if err == nil {
		t.Error("NewFormatter() should fail for an unwritable path")
	}
}

func TestTableRenderText(t *testing.T) {
	table := NewTable("Issues", []string{"Line", "Code"}, [][]string{{"3", "E501"}, {"7", "W291"}}, []string{"Total", "2"}, nil)

	var buf bytes.Buffer
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Issues", "======", "E501", "W291", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Issues", []string{"Line", "Code"}, [][]string{{"3", "E501"}}, nil, nil)

	var buf bytes.Buffer
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}
	want := "## Issues\n\n| Line | Code |\n| --- | --- |\n| 3 | E501 |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() = %q, want %q", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	table := NewTable("", []string{"Line", "Code"}, [][]string{{"3", "E501"}}, nil, nil)
	rows, ok := table.RenderData().([]map[string]string)
	if !ok || len(rows) != 1 || rows[0]["Code"] != "E501" {
		t.Errorf("RenderData() = %#v", table.RenderData())
	}

	withData := NewTable("", nil, nil, nil, []int{1})
	if got, ok := withData.RenderData().([]int); !ok || got[0] != 1 {
		t.Errorf("RenderData() should return the wrapped data, got %#v", withData.RenderData())
	}
}

func TestSectionRender(t *testing.T) {
	s := &Section{
		Title:    "Formatting",
		Content:  "ok",
		Sections: []Section{{Title: "Details", Content: "none"}},
	}

	var text bytes.Buffer
	if err := s.RenderText(&text, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Formatting\n==========\nok") || !strings.Contains(text.String(), "Details\n-------") {
		t.Errorf("RenderText() = %q", text.String())
	}

	var md bytes.Buffer
	if err := s.RenderMarkdown(&md); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "## Formatting") || !strings.Contains(md.String(), "### Details") {
		t.Errorf("RenderMarkdown() = %q", md.String())
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]any{"name": "tower", "count": 2}

	tests := []struct {
		format Format
		check  func(t *testing.T, out string)
	}{
		{FormatJSON, func(t *testing.T, out string) {
			var got map[string]any
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
		}},
		{FormatYAML, func(t *testing.T, out string) {
			var got map[string]any
			if err := yaml.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("invalid YAML: %v", err)
			}
			if got["name"] != "tower" {
				t.Errorf("name = %v", got["name"])
			}
		}},
		{FormatTOON, func(t *testing.T, out string) {
			if !strings.Contains(out, "name: tower") {
				t.Errorf("TOON output = %q", out)
			}
		}},
		{FormatMarkdown, func(t *testing.T, out string) {
			if !strings.HasPrefix(out, "```json\n") || !strings.HasSuffix(out, "```\n") {
				t.Errorf("markdown output = %q", out)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			f := NewWriterFormatter(tt.format, &buf, false)
			if err := f.Output(data); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			tt.check(t, buf.String())
		})
	}
}

func TestMarshalKeepsUnavailableShape(t *testing.T) {
	data := struct {
		Issues models.Result[[]models.AnalysisIssue] `json:"issues"`
	}{Issues: models.Unavailable[[]models.AnalysisIssue]("flake8 missing")}

	out, err := Marshal(FormatYAML, data)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(out), "error: flake8 missing") {
		t.Errorf("YAML output = %q", out)
	}

	if _, err := Marshal(FormatText, data); err == nil {
		t.Error("Marshal(text) should fail")
	}
}

func TestMessenger(t *testing.T) {
	var buf bytes.Buffer
	m := NewMessenger(&buf, false)

	m.Success("done %d", 1)
	m.Warning("careful")
	m.Error("failed: %s", "x")
	m.Info("note")

	want := "done 1\nWARNING: careful\nERROR: failed: x\nnote\n"
	if buf.String() != want {
		t.Errorf("messages = %q, want %q", buf.String(), want)
	}
}

func TestRankColor(t *testing.T) {
	if got := RankColor("", "x"); got != "x" {
		t.Errorf("RankColor(\"\") = %q", got)
	}
	for _, rank := range []string{"A", "c", "F"} {
		if !strings.Contains(RankColor(rank, "x"), "x") {
			t.Errorf("RankColor(%q) lost its text", rank)
		}
	}
}
