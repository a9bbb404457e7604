// Package parser wraps tree-sitter to inspect Python sources before the
// external tools run.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/panbanda/pyreview/pkg/models"
)

// Parser wraps a tree-sitter parser configured for Python. A Parser is not
// safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed tree and its source.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses Python source. Syntax errors do not fail the parse; they
// show up as ERROR or missing nodes in the tree.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}
	return &ParseResult{Tree: tree, Source: source}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// detectLanguage determines the language from a file path.
func detectLanguage(path string) models.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return models.LangPython
	default:
		return models.LangUnknown
	}
}

// IsPython reports whether path names a Python source file.
func IsPython(path string) bool {
	return detectLanguage(path) == models.LangPython
}

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO overhead.
type TypedNodeVisitor func(node *sitter.Node, nodeType string) bool

// WalkTyped traverses the AST depth-first. Returning false from visitor
// skips the node's children.
func WalkTyped(node *sitter.Node, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type() // Cache the type once per node
	if !visitor(node, nodeType) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), visitor)
	}
}
