// Package archive lists and fills the cloud folder payslips are archived in.
package archive

import "context"

// ObjectStore is the archive capability. Implementations authorize once per
// process, transparently to callers, and must be safe for concurrent use.
type ObjectStore interface {
	// ListObjects returns the names of the objects in folder whose name
	// contains prefix, most recently created first.
	ListObjects(ctx context.Context, folder, prefix string) ([]string, error)
	// UploadObject stores the file at localPath as name in folder.
	UploadObject(ctx context.Context, folder, name, localPath string) error
}
