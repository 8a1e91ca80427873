// Package memory stores accepted components so later runs can reuse them as
// context. It is disabled by default; NopStore satisfies the interface then.
package memory

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// ErrEmptyQuery is returned by Related for a blank query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Match is one remembered component returned by Related.
type Match struct {
	ProjectID  string
	Component  string
	Language   project.Language
	Filename   string
	Source     string
	Similarity float32
}

// Store remembers accepted artifacts and finds similar ones.
type Store interface {
	Remember(ctx context.Context, projectID string, artifact project.Artifact) error
	Related(ctx context.Context, query string, n int) ([]Match, error)
}

// NopStore remembers nothing.
type NopStore struct{}

func (NopStore) Remember(context.Context, string, project.Artifact) error { return nil }

func (NopStore) Related(context.Context, string, int) ([]Match, error) { return nil, nil }
