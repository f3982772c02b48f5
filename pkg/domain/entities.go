// Package domain defines the experiment aggregate, its append-only change
// log, sync metadata records, and the rule evaluation primitives used by
// fieldbook.
package domain

// ElementType identifies the kind of element a change log entry refers to.
type ElementType string

// Element type identifiers recorded in Change entries.
const (
	// ElementExperiment identifies the experiment aggregate itself (title edits).
	ElementExperiment ElementType = "experiment"
	// ElementNote identifies a note, whether experiment-level or trial-level.
	ElementNote ElementType = "note"
	// ElementTrial identifies a trial.
	ElementTrial ElementType = "trial"
)

// ChangeType classifies a change log entry.
type ChangeType string

// Change type identifiers recorded in Change entries.
const (
	ChangeAdd    ChangeType = "add"
	ChangeDelete ChangeType = "delete"
	ChangeModify ChangeType = "modify"
)

// Change is an immutable change log entry. Entries are appended, never
// mutated or removed; ordering is positional and there is no timestamp.
type Change struct {
	Element   ElementType `json:"element"`
	Type      ChangeType  `json:"type"`
	ElementID string      `json:"element_id"`
}

// NoteKind discriminates the note variants.
type NoteKind string

// Note variant identifiers.
const (
	NoteText     NoteKind = "text"
	NotePicture  NoteKind = "picture"
	NoteSnapshot NoteKind = "snapshot"
	NoteTrigger  NoteKind = "trigger"
)

// TextNote is the payload of a free-text note.
type TextNote struct {
	Text string `json:"text"`
}

// PictureNote is the payload of a captured image note. ImagePath is the
// asset-store key of the image file.
type PictureNote struct {
	ImagePath string `json:"image_path"`
}

// SnapshotNote is the payload of a sensor snapshot note.
type SnapshotNote struct {
	Snapshots []SensorSnapshot `json:"snapshots"`
}

// TriggerNote is the payload of a note emitted by a fired sensor trigger.
type TriggerNote struct {
	SensorID  string  `json:"sensor_id"`
	Value     float64 `json:"value"`
	Condition string  `json:"condition"`
}

// Note is a tagged union over the four note variants. Exactly one payload
// pointer matching Kind is set. TimestampMS is logical capture time used for
// ordering relative to recording ranges, not for merge ordering.
type Note struct {
	ID          string        `json:"id"`
	Kind        NoteKind      `json:"kind"`
	TimestampMS int64         `json:"timestamp_ms"`
	Caption     *string       `json:"caption,omitempty"`
	Text        *TextNote     `json:"text,omitempty"`
	Picture     *PictureNote  `json:"picture,omitempty"`
	Snapshot    *SnapshotNote `json:"snapshot,omitempty"`
	Trigger     *TriggerNote  `json:"trigger,omitempty"`
}

// AssetPath returns the asset-store key referenced by the note and whether
// the note references one at all. Only picture notes carry assets.
func (n Note) AssetPath() (string, bool) {
	if n.Kind == NotePicture && n.Picture != nil && n.Picture.ImagePath != "" {
		return n.Picture.ImagePath, true
	}
	return "", false
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	cp := n
	cp.Caption = cloneStringPtr(n.Caption)
	if n.Text != nil {
		t := *n.Text
		cp.Text = &t
	}
	if n.Picture != nil {
		p := *n.Picture
		cp.Picture = &p
	}
	if n.Snapshot != nil {
		s := SnapshotNote{Snapshots: append([]SensorSnapshot(nil), n.Snapshot.Snapshots...)}
		cp.Snapshot = &s
	}
	if n.Trigger != nil {
		t := *n.Trigger
		cp.Trigger = &t
	}
	return cp
}

// Range is a closed interval on the recording time axis, in milliseconds.
type Range struct {
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// Trial groups the notes and ranges captured during one recording session.
type Trial struct {
	ID             string  `json:"id"`
	Title          *string `json:"title,omitempty"`
	Caption        *string `json:"caption,omitempty"`
	CropRange      *Range  `json:"crop_range,omitempty"`
	RecordingRange Range   `json:"recording_range"`
	Notes          []Note  `json:"notes"`
}

// Clone returns a deep copy of the trial and its notes.
func (t Trial) Clone() Trial {
	cp := t
	cp.Title = cloneStringPtr(t.Title)
	cp.Caption = cloneStringPtr(t.Caption)
	if t.CropRange != nil {
		r := *t.CropRange
		cp.CropRange = &r
	}
	if t.Notes != nil {
		cp.Notes = make([]Note, len(t.Notes))
		for i, n := range t.Notes {
			cp.Notes[i] = n.Clone()
		}
	}
	return cp
}

// SensorSnapshot is a single sensor value captured at a point in time.
type SensorSnapshot struct {
	SensorID    string  `json:"sensor_id"`
	Value       float64 `json:"value"`
	TimestampMS int64   `json:"timestamp_ms"`
}

// SensorSpec describes a sensor available to an experiment.
type SensorSpec struct {
	SensorID string `json:"sensor_id"`
	Name     string `json:"name"`
	Units    string `json:"units"`
}

// SensorLayout captures per-sensor display configuration.
type SensorLayout struct {
	SensorID     string `json:"sensor_id"`
	AudioEnabled bool   `json:"audio_enabled"`
	StatsOverlay bool   `json:"stats_overlay"`
	ColorIndex   int    `json:"color_index"`
}

// SensorTrigger describes a condition that fires a trigger note during recording.
type SensorTrigger struct {
	TriggerID string  `json:"trigger_id"`
	SensorID  string  `json:"sensor_id"`
	Condition string  `json:"condition"`
	Value     float64 `json:"value"`
}

// Experiment is the aggregate root: notes, trials, sensor configuration, and
// the change log that records every structural mutation. An experiment is
// owned exclusively by the context that created it; external replicas
// materialized for a merge are never shared.
type Experiment struct {
	ID               string          `json:"id"`
	Title            *string         `json:"title,omitempty"`
	Notes            []Note          `json:"notes"`
	Trials           []Trial         `json:"trials"`
	SensorTriggers   []SensorTrigger `json:"sensor_triggers"`
	SensorLayouts    []SensorLayout  `json:"sensor_layouts"`
	AvailableSensors []SensorSpec    `json:"available_sensors"`
	TotalTrials      int             `json:"total_trials"`
	Changes          []Change        `json:"changes"`
}

// Clone returns a deep copy of the experiment aggregate.
func (e Experiment) Clone() Experiment {
	cp := e
	cp.Title = cloneStringPtr(e.Title)
	if e.Notes != nil {
		cp.Notes = make([]Note, len(e.Notes))
		for i, n := range e.Notes {
			cp.Notes[i] = n.Clone()
		}
	}
	if e.Trials != nil {
		cp.Trials = make([]Trial, len(e.Trials))
		for i, t := range e.Trials {
			cp.Trials[i] = t.Clone()
		}
	}
	cp.SensorTriggers = append([]SensorTrigger(nil), e.SensorTriggers...)
	cp.SensorLayouts = append([]SensorLayout(nil), e.SensorLayouts...)
	cp.AvailableSensors = append([]SensorSpec(nil), e.AvailableSensors...)
	cp.Changes = append([]Change(nil), e.Changes...)
	return cp
}

// SyncExperiment is the per-experiment sync metadata held by the library.
// Its lifecycle is independent from the experiment content; an entry can
// exist before the content has synced.
type SyncExperiment struct {
	ExperimentID   string  `json:"experiment_id"`
	FileID         *string `json:"file_id,omitempty"`
	Archived       bool    `json:"archived"`
	Deleted        bool    `json:"deleted"`
	LastModifiedMS int64   `json:"last_modified_ms"`
	LastOpenedMS   int64   `json:"last_opened_ms"`
}

// Clone returns a copy of the sync metadata record.
func (s SyncExperiment) Clone() SyncExperiment {
	cp := s
	cp.FileID = cloneStringPtr(s.FileID)
	return cp
}

// ExperimentLibrary is the collection of per-experiment sync metadata, one
// entry per experiment ID, plus the cloud folder holding the experiment files.
type ExperimentLibrary struct {
	FolderID    string           `json:"folder_id"`
	Experiments []SyncExperiment `json:"experiments"`
}

// Find returns the entry for the given experiment ID.
func (l ExperimentLibrary) Find(experimentID string) (SyncExperiment, bool) {
	for _, e := range l.Experiments {
		if e.ExperimentID == experimentID {
			return e.Clone(), true
		}
	}
	return SyncExperiment{}, false
}

// Put inserts or replaces the entry for entry.ExperimentID, preserving order
// for existing entries and appending new ones.
func (l *ExperimentLibrary) Put(entry SyncExperiment) {
	for i, e := range l.Experiments {
		if e.ExperimentID == entry.ExperimentID {
			l.Experiments[i] = entry.Clone()
			return
		}
	}
	l.Experiments = append(l.Experiments, entry.Clone())
}

// Clone returns a deep copy of the library.
func (l ExperimentLibrary) Clone() ExperimentLibrary {
	cp := l
	if l.Experiments != nil {
		cp.Experiments = make([]SyncExperiment, len(l.Experiments))
		for i, e := range l.Experiments {
			cp.Experiments[i] = e.Clone()
		}
	}
	return cp
}

// SyncStatus is the local-only sync bookkeeping side table, one record per
// experiment. ServerArchived is the archived flag last observed on the
// server, consulted by the library merge. MergedChangeCursor is the index
// into the external change log through which a previous merge has already
// been applied; LastSyncedChangeCount marks the common-ancestor position in
// the local change log.
type SyncStatus struct {
	ExperimentID          string `json:"experiment_id"`
	ServerArchived        bool   `json:"server_archived"`
	Dirty                 bool   `json:"dirty"`
	LastSyncedChangeCount int    `json:"last_synced_change_count"`
	MergedChangeCursor    int    `json:"merged_change_cursor"`
}

// Recording is one scalar sensor reading captured during a trial. Recordings
// live in the sensor-data store, keyed by trial ID, and are garbage-collected
// when a merge deletes the owning trial.
type Recording struct {
	TrialID     string  `json:"trial_id"`
	SensorID    string  `json:"sensor_id"`
	TimestampMS int64   `json:"timestamp_ms"`
	Value       float64 `json:"value"`
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
