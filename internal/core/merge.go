package core

import (
	"sort"

	"fieldbook/pkg/domain"
)

// ExperimentMerger reconciles a local experiment aggregate with an external
// replica of the same experiment that diverged after a common ancestor
// state. The local aggregate is mutated in place; the external aggregate is
// read-only for the duration of a merge and may be discarded afterward.
//
// The merger is synchronous and performs no I/O. The caller must serialize
// merges per experiment ID; concurrent merges into the same local aggregate
// are undefined.
//
// Deleted trial IDs and deleted asset paths accumulate across MergeFrom
// calls on the same instance and are never reset automatically; they exist
// so that external stores can garbage-collect data the merger has no
// authority to remove itself.
type ExperimentMerger struct {
	local         *domain.Experiment
	localBase     int
	cursor        int
	deletedAssets map[string]struct{}
	deletedTrials map[string]struct{}
}

// NewExperimentMerger prepares a merger for the given local aggregate.
// status supplies the common-ancestor position in the local change log and
// the cursor into the external change log left by any previous merge.
func NewExperimentMerger(local *domain.Experiment, status domain.SyncStatus) *ExperimentMerger {
	base := status.LastSyncedChangeCount
	if base > len(local.Changes) {
		base = len(local.Changes)
	}
	if base < 0 {
		base = 0
	}
	return &ExperimentMerger{
		local:         local,
		localBase:     base,
		cursor:        status.MergedChangeCursor,
		deletedAssets: make(map[string]struct{}),
		deletedTrials: make(map[string]struct{}),
	}
}

// localEditWindow indexes the local changes made since the common ancestor.
// edited marks element IDs with any competing local change; deleted marks
// element IDs the local replica tombstoned.
type localEditWindow struct {
	edited  map[string]bool
	deleted map[string]bool
}

func (m *ExperimentMerger) editWindow() localEditWindow {
	w := localEditWindow{edited: make(map[string]bool), deleted: make(map[string]bool)}
	for _, c := range m.local.Changes[m.localBase:] {
		w.edited[c.ElementID] = true
		if c.Type == domain.ChangeDelete {
			w.deleted[c.ElementID] = true
		}
	}
	return w
}

// MergeFrom walks the external change log from the merge cursor to its end
// and reproduces the effect of each entry onto the local aggregate. Applying
// an effect goes through the aggregate's own mutation entry points, so every
// applied change appends to the local log; entries whose target is absent
// are treated as no-ops.
func (m *ExperimentMerger) MergeFrom(external *domain.Experiment) {
	window := m.editWindow()
	start := m.cursor
	if start > len(external.Changes) {
		start = len(external.Changes)
	}
	if start < 0 {
		start = 0
	}
	for _, c := range external.Changes[start:] {
		switch c.Element {
		case domain.ElementExperiment:
			if c.Type == domain.ChangeModify {
				m.mergeTitle(external, window)
			}
		case domain.ElementNote:
			m.applyNoteChange(c, external, window)
		case domain.ElementTrial:
			m.applyTrialChange(c, external, window)
		}
	}
	m.cursor = len(external.Changes)
	if external.TotalTrials > m.local.TotalTrials {
		m.local.TotalTrials = external.TotalTrials
	}
	// The merged state is the new common ancestor; changes appended while
	// applying external effects are not competing local edits.
	m.localBase = len(m.local.Changes)
}

func (m *ExperimentMerger) mergeTitle(external *domain.Experiment, window localEditWindow) {
	if window.edited[m.local.ID] {
		m.local.SetTitle(ResolveTextConflict(m.local.Title, external.Title))
		return
	}
	m.local.SetTitle(external.Title)
}

func (m *ExperimentMerger) applyNoteChange(c domain.Change, external *domain.Experiment, window localEditWindow) {
	switch c.Type {
	case domain.ChangeAdd:
		if _, _, exists := m.local.FindNote(c.ElementID); exists {
			return
		}
		ext, trialID, ok := external.FindNote(c.ElementID)
		if !ok {
			return
		}
		if window.deleted[c.ElementID] {
			// Local tombstone wins over the external add; the external copy's
			// asset still needs collection.
			m.recordNoteAsset(ext)
			return
		}
		if trialID == "" {
			m.local.AddNote(ext)
			return
		}
		if !m.local.AddTrialNote(ext, trialID) && window.deleted[trialID] {
			m.recordNoteAsset(ext)
		}
	case domain.ChangeDelete:
		note, trialID, ok := m.local.FindNote(c.ElementID)
		if !ok {
			return
		}
		if trialID == "" {
			m.local.RemoveNote(c.ElementID)
		} else {
			m.local.RemoveTrialNote(c.ElementID, trialID)
		}
		m.recordNoteAsset(note)
	case domain.ChangeModify:
		ext, _, ok := external.FindNote(c.ElementID)
		if !ok {
			return
		}
		local, _, exists := m.local.FindNote(c.ElementID)
		if !exists {
			// Delete beats modify: the external content is discarded, not
			// merged into a tombstone.
			if window.deleted[c.ElementID] {
				m.recordNoteAsset(ext)
			}
			return
		}
		merged := ext.Clone()
		if window.edited[c.ElementID] {
			merged.Caption = ResolveTextConflict(local.Caption, ext.Caption)
		}
		m.local.UpdateNote(merged)
	}
}

func (m *ExperimentMerger) applyTrialChange(c domain.Change, external *domain.Experiment, window localEditWindow) {
	switch c.Type {
	case domain.ChangeAdd:
		if window.deleted[c.ElementID] {
			m.deletedTrials[c.ElementID] = struct{}{}
			return
		}
		if _, exists := m.local.FindTrial(c.ElementID); exists {
			return
		}
		ext, ok := external.FindTrial(c.ElementID)
		if !ok {
			return
		}
		m.local.AddTrial(ext, false)
	case domain.ChangeDelete:
		if _, removed := m.local.RemoveTrial(c.ElementID); removed {
			m.deletedTrials[c.ElementID] = struct{}{}
			return
		}
		if window.deleted[c.ElementID] {
			m.deletedTrials[c.ElementID] = struct{}{}
		}
	case domain.ChangeModify:
		ext, ok := external.FindTrial(c.ElementID)
		if !ok {
			return
		}
		local, exists := m.local.FindTrial(c.ElementID)
		if !exists {
			if window.deleted[c.ElementID] {
				m.deletedTrials[c.ElementID] = struct{}{}
			}
			return
		}
		merged := ext.Clone()
		if window.edited[c.ElementID] {
			merged.Title = ResolveTextConflict(local.Title, ext.Title)
			merged.Caption = ResolveTextConflict(local.Caption, ext.Caption)
		}
		// Note membership is reconciled by note-level changes, never by a
		// trial replace.
		merged.Notes = local.Notes
		m.local.UpdateTrial(merged)
	}
}

func (m *ExperimentMerger) recordNoteAsset(n domain.Note) {
	if path, ok := n.AssetPath(); ok {
		m.deletedAssets[path] = struct{}{}
	}
}

// ReplaceExperiment copies the sensor configuration of the local aggregate
// into target verbatim. This is a one-directional copy, not a merge: it is
// used the first time a local-only experiment is pushed to a previously
// empty remote representation, so target has no competing history and no
// conflict handling applies.
func (m *ExperimentMerger) ReplaceExperiment(target *domain.Experiment) {
	target.AvailableSensors = append([]domain.SensorSpec(nil), m.local.AvailableSensors...)
	target.SensorTriggers = append([]domain.SensorTrigger(nil), m.local.SensorTriggers...)
	target.SensorLayouts = append([]domain.SensorLayout(nil), m.local.SensorLayouts...)
}

// DeletedAssetPaths returns the asset-store keys of notes deleted by merges
// on this instance, sorted, each exactly once.
func (m *ExperimentMerger) DeletedAssetPaths() []string {
	return sortedKeys(m.deletedAssets)
}

// DeletedTrialIDs returns the IDs of trials deleted by merges on this
// instance, sorted, each exactly once.
func (m *ExperimentMerger) DeletedTrialIDs() []string {
	return sortedKeys(m.deletedTrials)
}

// MergedChangeCursor returns the index into the external change log through
// which changes have been applied. Callers persist it so a later merge
// against the same external replica does not re-apply conflicts.
func (m *ExperimentMerger) MergedChangeCursor() int {
	return m.cursor
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
