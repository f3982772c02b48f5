package core

import "fieldbook/pkg/domain"

// LibraryMerger reconciles two copies of the experiment library, the
// collection of lightweight per-experiment sync metadata. Library merging is
// independent of per-experiment content merging and has no change log: each
// field carries its own resolution policy.
type LibraryMerger struct {
	local *domain.ExperimentLibrary
}

// NewLibraryMerger prepares a merger that mutates local in place.
func NewLibraryMerger(local *domain.ExperimentLibrary) *LibraryMerger {
	return &LibraryMerger{local: local}
}

// MergeFrom merges the external library into the local one.
//
// serverArchived reports the archived flag last observed on the server for
// an experiment ID, as recorded in the local sync-status side table; the
// second result is false when no status has been recorded. The external
// archived flag is applied only when it differs from that last known server
// state, which protects a local un-archive from being clobbered by a stale
// remote value.
func (m *LibraryMerger) MergeFrom(external domain.ExperimentLibrary, serverArchived func(experimentID string) (bool, bool)) {
	m.local.FolderID = external.FolderID
	for _, ext := range external.Experiments {
		local, exists := m.local.Find(ext.ExperimentID)
		if !exists {
			m.local.Put(ext)
			continue
		}
		merged := local
		if ext.LastModifiedMS > merged.LastModifiedMS {
			merged.LastModifiedMS = ext.LastModifiedMS
		}
		if ext.LastOpenedMS > merged.LastOpenedMS {
			merged.LastOpenedMS = ext.LastOpenedMS
		}
		// Deletion is sticky: once either side deletes, the merge never
		// resurrects the entry.
		if ext.Deleted {
			merged.Deleted = true
		}
		if known, ok := serverArchived(ext.ExperimentID); ok && ext.Archived != known {
			merged.Archived = ext.Archived
		}
		if merged.FileID == nil && ext.FileID != nil {
			merged.FileID = ext.FileID
		}
		m.local.Put(merged)
	}
}
