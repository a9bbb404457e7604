package parser

import (
	"bytes"
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/pyreview/pkg/models"
)

// Inspect parses source and summarizes its structure: line count,
// function and class definitions, and the lines holding syntax errors.
func Inspect(ctx context.Context, source []byte) (*models.SourceInfo, error) {
	p := New()
	defer p.Close()

	result, err := p.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	defer result.Tree.Close()

	info := &models.SourceInfo{
		Language: models.LangPython,
		Lines:    countLines(source),
	}

	errLines := roaring.New()
	WalkTyped(result.Tree.RootNode(), func(node *sitter.Node, nodeType string) bool {
		if node.IsError() || node.IsMissing() {
			errLines.Add(node.StartPoint().Row + 1)
			return false
		}
		switch nodeType {
		case "function_definition":
			info.Functions++
		case "class_definition":
			info.Classes++
		}
		return true
	})

	for _, line := range errLines.ToArray() {
		info.SyntaxErrors = append(info.SyntaxErrors, int(line))
	}
	return info, nil
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}
