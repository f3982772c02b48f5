// Package assets re-exports the core asset storage abstractions for stable
// imports across the internal tree.
package assets

import (
	"fieldbook/internal/assets/core"
)

type (
	// Driver identifies an asset backend driver.
	Driver = core.Driver
	// PutOptions configures an asset write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored asset metadata.
	Info = core.Info
	// Store is the interface for asset storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported
