package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseBlockKind(t *testing.T) {
	tests := []struct {
		input   string
		want    BlockKind
		wantErr bool
	}{
		{"function", KindFunction, false},
		{"method", KindMethod, false},
		{"class", KindClass, false},
		{"module", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBlockKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBlockKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBlockKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestComplexityBlock_QualifiedName(t *testing.T) {
	method := ComplexityBlock{Name: "run", Kind: KindMethod, ClassName: "Tower"}
	if got := method.QualifiedName(); got != "Tower.run" {
		t.Errorf("QualifiedName() = %q, want Tower.run", got)
	}

	fn := ComplexityBlock{Name: "main", Kind: KindFunction}
	if got := fn.QualifiedName(); got != "main" {
		t.Errorf("QualifiedName() = %q, want main", got)
	}
}

func TestAnalysisReport_Blocks(t *testing.T) {
	r := &AnalysisReport{
		Complexity: Ok(Complexity{
			"b.py": {{Name: "b1", Complexity: 1}},
			"a.py": {{Name: "a1", Complexity: 2}, {Name: "a2", Complexity: 3}},
		}),
	}

	blocks := r.Blocks()
	var names []string
	for _, b := range blocks {
		names = append(names, b.Name)
	}
	if want := []string{"a1", "a2", "b1"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Blocks() names = %v, want %v", names, want)
	}

	unavailable := &AnalysisReport{Complexity: Unavailable[Complexity]("radon not found")}
	if got := unavailable.Blocks(); got != nil {
		t.Errorf("Blocks() = %v, want nil", got)
	}
}

func TestAnalysisReport_JSONRoundTrip(t *testing.T) {
	mi := 71.5
	report := AnalysisReport{
		SourceFile: "game.py",
		Digest:     "abc123",
		Source:     &SourceInfo{Language: LangPython, Lines: 40, Functions: 3, Classes: 1},
		Issues: Ok([]AnalysisIssue{
			{Line: 3, Column: 1, Code: "E501", Message: "line too long"},
			{Line: 9, Column: 5, Code: "W291", Message: "trailing whitespace"},
		}),
		Complexity: Ok(Complexity{
			"game.py": {
				{Name: "Tower", Kind: KindClass, Complexity: 4, Line: 10, EndLine: 30, Rank: "A"},
				{Name: "fire", Kind: KindMethod, Complexity: 9, Line: 12, Rank: "B", ClassName: "Tower"},
			},
		}),
		Maintainability: Unavailable[Maintainability]("radon not installed or not found in PATH."),
		Formatting:      FormattingResult{Succeeded: true, Message: "ok", OutputPath: "out/formatted_game.py"},
		Suggestions:     []string{"1 block(s) with high cyclomatic complexity — consider refactoring."},
		Summary:         Summary{IssueCount: 2, AffectedLines: 2, BlockCount: 2, MaxComplexity: 9, Maintainability: &mi},
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded AnalysisReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if !reflect.DeepEqual(report, decoded) {
		t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", decoded, report)
	}
}

func TestSourceInfo_Valid(t *testing.T) {
	var nilInfo *SourceInfo
	if nilInfo.Valid() {
		t.Error("nil SourceInfo should not be valid")
	}
	if !(&SourceInfo{}).Valid() {
		t.Error("SourceInfo without syntax errors should be valid")
	}
	if (&SourceInfo{SyntaxErrors: []int{4}}).Valid() {
		t.Error("SourceInfo with syntax errors should not be valid")
	}
}
