package storage

import "context"

// ArtifactStore is the contract for the remote artifact store the scheduler
// resumes from and exports to. Artifact names encode the window label.
type ArtifactStore interface {
	Store(ctx context.Context, name string, data []byte) error
	Retrieve(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}
