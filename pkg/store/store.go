// Package store persists saved projects for the server.
//
// A [Project] bundles a manifest with the image bytes its parts reference, so
// it can be rebuilt and rendered without touching the filesystem the
// manifest came from. Two backends implement [Store]:
//   - [FileStore]: one JSON document per project in a directory
//   - [MongoStore]: a MongoDB collection, for multi-instance deployments
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project not found")

// Project is a saved manifest plus its uploaded assets.
type Project struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Manifest  []byte            `json:"manifest"`
	Assets    map[string][]byte `json:"assets,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewProject creates a project with a fresh ID and timestamps.
func NewProject(name string, manifest []byte, assets map[string][]byte) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:        NewID(),
		Name:      name,
		Manifest:  manifest,
		Assets:    assets,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewID returns a random project ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the form produced by [NewID].
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store is the interface for project storage backends.
type Store interface {
	// Get returns the project with its assets, or ErrNotFound.
	Get(ctx context.Context, id string) (*Project, error)

	// Put creates or replaces a project.
	Put(ctx context.Context, p *Project) error

	// Delete removes a project, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns all projects without their assets, most recently updated
	// first.
	List(ctx context.Context) ([]*Project, error)

	// Close releases backend resources.
	Close() error
}
