package ports

import "context"

// ArtifactStore moves model artifacts between local disk and remote storage.
type ArtifactStore interface {
	// Upload pushes a local file or directory under the given destination URI.
	Upload(ctx context.Context, localPath, uri string) error
	// Download materializes everything under the given URI into destDir and
	// returns the local root of the downloaded tree.
	Download(ctx context.Context, uri, destDir string) (string, error)
}
