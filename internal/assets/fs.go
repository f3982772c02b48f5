package assets

import (
	infraFS "fieldbook/internal/infra/assets/fs"
)

// NewFilesystem returns a filesystem-backed assets.Store rooted at path,
// creating the directory if needed.
func NewFilesystem(root string) (Store, error) {
	return infraFS.New(root)
}
