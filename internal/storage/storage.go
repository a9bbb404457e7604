// Package storage persists analysis reports and stages uploaded sources.
package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/panbanda/pyreview/pkg/config"
	"github.com/panbanda/pyreview/pkg/models"
)

//go:embed report.schema.json
var reportSchema []byte

const schemaURL = "https://pyreview.dev/report.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ErrInvalidReport is returned when a document does not match the report schema.
var ErrInvalidReport = errors.New("invalid report")

// ErrInvalidName is returned for report or upload names that would escape
// their directory.
var ErrInvalidName = errors.New("invalid file name")

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(reportSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse report schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("load report schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Store reads and writes files under the configured directories.
type Store struct {
	reportDir string
	uploadDir string
}

// New creates a store rooted at the report and input directories.
func New(paths config.PathsConfig) *Store {
	return &Store{reportDir: paths.ReportDir, uploadDir: paths.InputDir}
}

// ReportDir returns the directory reports are written to.
func (s *Store) ReportDir() string {
	return s.reportDir
}

// PathFor returns where the report for source is stored:
// <report_dir>/report_<stem>.json.
func (s *Store) PathFor(source string) string {
	return s.TaggedPathFor(source, "")
}

// TaggedPathFor is PathFor with tag appended to the stem, as
// report_<stem>.<tag>.json. An empty tag gives the plain name. Tags keep
// same-named sources analyzed together from sharing one report file.
func (s *Store) TaggedPathFor(source, tag string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if tag != "" {
		stem += "." + tag
	}
	return filepath.Join(s.reportDir, "report_"+stem+".json")
}

// Resolve maps a bare report name (as served over HTTP) to its path.
// Names containing path separators are rejected.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return filepath.Join(s.reportDir, name), nil
}

// Save writes r as indented JSON and returns the path written.
func (s *Store) Save(r *models.AnalysisReport) (string, error) {
	return s.SaveTagged(r, "")
}

// SaveTagged writes r to TaggedPathFor(r.SourceFile, tag).
func (s *Store) SaveTagged(r *models.AnalysisReport, tag string) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(s.reportDir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := s.TaggedPathFor(r.SourceFile, tag)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Load reads a stored report, validating it against the report schema.
func Load(path string) (*models.AnalysisReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode validates data and decodes it into a report.
func Decode(data []byte) (*models.AnalysisReport, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var r models.AnalysisReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return &r, nil
}

// Validate checks data against the report schema.
func Validate(data []byte) error {
	sch, err := schema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return nil
}

// StageUpload writes content to the input directory under a name unique
// to this upload, uploaded_<uuid>_<name>, and returns its path.
func (s *Store) StageUpload(name string, content []byte) (string, error) {
	base := filepath.Base(name)
	if base == "." || base == ".." || base == string(filepath.Separator) || base == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("create input directory: %w", err)
	}
	path := filepath.Join(s.uploadDir, "uploaded_"+uuid.NewString()+"_"+base)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return path, nil
}
