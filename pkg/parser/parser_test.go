package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/pyreview/internal/testutil"
	"github.com/panbanda/pyreview/pkg/models"
)

func TestNew(t *testing.T) {
	p := New()
	require.NotNil(t, p)
	assert.NotNil(t, p.parser)
	p.Close()
}

func TestDetectLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want models.Language
	}{
		{"script.py", models.LangPython},
		{"module.pyw", models.LangPython},
		{"types.pyi", models.LangPython},
		{"pkg/Mixed.PY", models.LangPython},
		{"main.go", models.LangUnknown},
		{"file.txt", models.LangUnknown},
		{"file", models.LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, detectLanguage(tt.path))
			assert.Equal(t, tt.want == models.LangPython, IsPython(tt.path))
		})
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte(testutil.SamplePython))
	require.NoError(t, err)
	defer result.Tree.Close()

	root := result.Tree.RootNode()
	assert.Equal(t, "module", root.Type())
	assert.False(t, root.HasError())
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   models.SourceInfo
	}{
		{
			name:   "sample",
			source: testutil.SamplePython,
			want: models.SourceInfo{
				Language:  models.LangPython,
				Lines:     17,
				Functions: 3,
				Classes:   1,
			},
		},
		{
			name:   "empty",
			source: "",
			want:   models.SourceInfo{Language: models.LangPython},
		},
		{
			name:   "no trailing newline",
			source: "x = 1\ny = 2",
			want:   models.SourceInfo{Language: models.LangPython, Lines: 2},
		},
		{
			name:   "async and nested",
			source: "async def outer():\n    def inner():\n        pass\n    return inner\n",
			want:   models.SourceInfo{Language: models.LangPython, Lines: 4, Functions: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := Inspect(context.Background(), []byte(tt.source))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *info)
			assert.True(t, info.Valid())
		})
	}
}

func TestInspectSyntaxError(t *testing.T) {
	source := "def ok():\n    return 1\n\ndef broken(:\n    pass\n"

	info, err := Inspect(context.Background(), []byte(source))
	require.NoError(t, err)

	assert.False(t, info.Valid())
	require.NotEmpty(t, info.SyntaxErrors)
	for _, line := range info.SyntaxErrors {
		assert.GreaterOrEqual(t, line, 4)
	}
}
