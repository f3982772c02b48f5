package assets

import (
	memorystore "fieldbook/internal/infra/assets/memory"
)

// NewMemory returns an in-memory assets.Store suitable for tests.
func NewMemory() Store { return memorystore.New() }
