package auth

import (
	"os"
	"strings"

	"github.com/dwikidiandra/dstory/pkg/config"
)

// TokenProvider supplies the bearer credential for authenticated API calls.
// Credential storage is owned by an external collaborator; this interface is
// the only auth surface the story subsystem sees.
type TokenProvider interface {
	// Token returns the current credential, or "" when no user is logged in.
	Token() string
}

// FileProvider reads the credential from a file maintained by the auth
// collaborator, falling back to the STORY_API_TOKEN environment variable when
// no file is configured.
type FileProvider struct {
	path string
}

func NewFileProvider(cfg *config.Config) *FileProvider {
	return &FileProvider{path: cfg.Api.TokenFile}
}

var _ TokenProvider = (*FileProvider)(nil)

func (p *FileProvider) Token() string {
	if p.path == "" {
		return os.Getenv("STORY_API_TOKEN")
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
