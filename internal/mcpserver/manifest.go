package mcpserver

import (
	"encoding/json"
)

const manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Manifest is the MCP registry manifest (server.json).
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes how to install/run the MCP server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []Environment `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

// Argument represents a command-line argument.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Environment declares a variable the server reads at startup.
type Environment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest creates the MCP server manifest JSON. The image runs
// "pyreview mcp"; the external tools must be installed in it.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/pyreview",
		Description: "Python file review: style issues, cyclomatic complexity, maintainability and formatting",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/pyreview",
			Source: "github",
		},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       "ghcr.io/panbanda/pyreview:" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			EnvironmentVariables: []Environment{{
				Name:        "PYREVIEW_CONFIG",
				Description: "Path to a pyreview config file",
			}},
			Transport: Transport{Type: "stdio"},
		}},
	}, "", "  ")
}
