package assets

import (
	"context"
	"fmt"
	"os"
)

// Open selects an assets.Store implementation using environment variables.
//
//	FIELDBOOK_ASSET_DRIVER: fs|s3|memory (default fs)
//	FIELDBOOK_ASSET_FS_ROOT: directory root when driver=fs (default ./assetdata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("FIELDBOOK_ASSET_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("FIELDBOOK_ASSET_FS_ROOT")
		return NewFilesystem(root)
	case DriverS3:
		return OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown asset driver %s", driver)
	}
}
