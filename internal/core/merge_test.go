package core

import (
	"reflect"
	"testing"

	"fieldbook/pkg/domain"
)

func textNote(id, text string) domain.Note {
	return domain.Note{ID: id, Kind: domain.NoteText, Text: &domain.TextNote{Text: text}}
}

func pictureNote(id, path string) domain.Note {
	return domain.Note{ID: id, Kind: domain.NotePicture, Picture: &domain.PictureNote{ImagePath: path}}
}

func newTrial(id string) domain.Trial {
	return domain.Trial{ID: id, RecordingRange: domain.Range{StartMS: 0, EndMS: 1000}}
}

// syncedPair clones base into a local and an external replica and builds the
// sync status marking the clone point as the common ancestor.
func syncedPair(base domain.Experiment) (domain.Experiment, domain.Experiment, domain.SyncStatus) {
	local := base.Clone()
	external := base.Clone()
	status := domain.SyncStatus{
		ExperimentID:          base.ID,
		LastSyncedChangeCount: len(base.Changes),
		MergedChangeCursor:    len(base.Changes),
	}
	return local, external, status
}

func TestMergeTitleExternalEditWins(t *testing.T) {
	base := domain.Experiment{ID: "exp1", Title: strPtr("Title1")}
	local, external, status := syncedPair(base)
	external.SetTitle(strPtr("Title3"))

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if local.Title == nil || *local.Title != "Title3" {
		t.Fatalf("title = %v, want Title3", local.Title)
	}
	if len(local.Changes) != 1 {
		t.Fatalf("change log length = %d, want 1", len(local.Changes))
	}
}

func TestMergeTitleConflictCombinesLocalFirst(t *testing.T) {
	base := domain.Experiment{ID: "exp1", Title: strPtr("Title1")}
	local, external, status := syncedPair(base)
	local.SetTitle(strPtr("Title2"))
	external.SetTitle(strPtr("Title3"))

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if local.Title == nil || *local.Title != "Title2 / Title3" {
		t.Fatalf("title = %v, want %q", local.Title, "Title2 / Title3")
	}
}

func TestMergeTitleConflictDeterministic(t *testing.T) {
	base := domain.Experiment{ID: "exp1", Title: strPtr("Title1")}
	run := func() string {
		local, external, status := syncedPair(base)
		local.SetTitle(strPtr("Title2"))
		external.SetTitle(strPtr("Title3"))
		NewExperimentMerger(&local, status).MergeFrom(&external)
		return *local.Title
	}
	first := run()
	for i := 0; i < 5; i++ {
		if got := run(); got != first {
			t.Fatalf("merge %d produced %q, first produced %q", i, got, first)
		}
	}
}

func TestMergeReMergeIsIdempotent(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	local, external, status := syncedPair(base)
	external.AddNote(textNote("n1", "hello"))
	external.AddTrial(newTrial("t1"), true)

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)
	status.MergedChangeCursor = merger.MergedChangeCursor()
	status.LastSyncedChangeCount = len(local.Changes)

	merged := local.Clone()
	again := NewExperimentMerger(&local, status)
	again.MergeFrom(&external)

	if !reflect.DeepEqual(local, merged) {
		t.Fatalf("second merge changed state:\nfirst  %+v\nsecond %+v", merged, local)
	}
	if got := again.DeletedTrialIDs(); len(got) != 0 {
		t.Fatalf("second merge reported deleted trials %v", got)
	}
}

func TestMergeNoteAddPropagates(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	local, external, status := syncedPair(base)
	external.AddNote(textNote("n1", "observation"))

	NewExperimentMerger(&local, status).MergeFrom(&external)

	if _, _, ok := local.FindNote("n1"); !ok {
		t.Fatal("note n1 not propagated")
	}
	if len(local.Changes) != 1 || local.Changes[0].Type != domain.ChangeAdd {
		t.Fatalf("change log = %+v, want single add", local.Changes)
	}
}

func TestMergeNoteAddAlreadyPresentIsNoOp(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	local, external, status := syncedPair(base)
	note := textNote("n1", "same")
	local.AddNote(note)
	external.AddNote(note)

	before := len(local.Changes)
	NewExperimentMerger(&local, status).MergeFrom(&external)

	if len(local.Changes) != before {
		t.Fatalf("change log grew from %d to %d for an already-present note", before, len(local.Changes))
	}
	if len(local.Notes) != 1 {
		t.Fatalf("note duplicated: %d copies", len(local.Notes))
	}
}

func TestMergeLocalDeleteBeatsExternalModify(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddNote(pictureNote("p1", "assets/p1.jpg"))
	local, external, status := syncedPair(base)

	local.RemoveNote("p1")
	modified, _, _ := external.FindNote("p1")
	modified.Caption = strPtr("external caption")
	external.UpdateNote(modified)

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if _, _, ok := local.FindNote("p1"); ok {
		t.Fatal("deleted note resurrected by external modify")
	}
	if got := merger.DeletedAssetPaths(); len(got) != 1 || got[0] != "assets/p1.jpg" {
		t.Fatalf("deleted assets = %v, want [assets/p1.jpg]", got)
	}
}

func TestMergeExternalDeleteBeatsLocalModify(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddNote(pictureNote("p1", "assets/p1.jpg"))
	local, external, status := syncedPair(base)

	modified, _, _ := local.FindNote("p1")
	modified.Caption = strPtr("local caption")
	local.UpdateNote(modified)
	external.RemoveNote("p1")

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if _, _, ok := local.FindNote("p1"); ok {
		t.Fatal("external delete did not remove locally modified note")
	}
	if got := merger.DeletedAssetPaths(); len(got) != 1 || got[0] != "assets/p1.jpg" {
		t.Fatalf("deleted assets = %v, want [assets/p1.jpg]", got)
	}
}

func TestMergeCaptionConflictOnNote(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddNote(textNote("n1", "body"))
	local, external, status := syncedPair(base)

	lv, _, _ := local.FindNote("n1")
	lv.Caption = strPtr("mine")
	local.UpdateNote(lv)
	ev, _, _ := external.FindNote("n1")
	ev.Caption = strPtr("theirs")
	external.UpdateNote(ev)

	NewExperimentMerger(&local, status).MergeFrom(&external)

	got, _, _ := local.FindNote("n1")
	if got.Caption == nil || *got.Caption != "mine / theirs" {
		t.Fatalf("caption = %v, want %q", got.Caption, "mine / theirs")
	}
}

func TestMergeTrialNoteAdd(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddTrial(newTrial("t1"), true)
	local, external, status := syncedPair(base)

	local.AddTrialNote(textNote("n-local", "local"), "t1")
	external.AddTrialNote(textNote("n-ext", "external"), "t1")

	NewExperimentMerger(&local, status).MergeFrom(&external)

	if _, owner, ok := local.FindNote("n-ext"); !ok || owner != "t1" {
		t.Fatalf("external trial note missing or misplaced (owner %q)", owner)
	}
	if _, owner, ok := local.FindNote("n-local"); !ok || owner != "t1" {
		t.Fatalf("local trial note lost (owner %q)", owner)
	}
}

func TestMergeTrialDeleteRecordsTrialID(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddTrial(newTrial("t1"), true)
	local, external, status := syncedPair(base)
	external.RemoveTrial("t1")

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if _, ok := local.FindTrial("t1"); ok {
		t.Fatal("trial t1 still present after external delete")
	}
	if got := merger.DeletedTrialIDs(); len(got) != 1 || got[0] != "t1" {
		t.Fatalf("deleted trials = %v, want [t1]", got)
	}
}

func TestMergeLocallyDeletedTrialModifiedExternally(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddTrial(newTrial("t1"), true)
	local, external, status := syncedPair(base)

	local.RemoveTrial("t1")
	ext, _ := external.FindTrial("t1")
	ext.Title = strPtr("renamed")
	external.UpdateTrial(ext)

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if _, ok := local.FindTrial("t1"); ok {
		t.Fatal("tombstoned trial resurrected by external modify")
	}
	if got := merger.DeletedTrialIDs(); len(got) != 1 || got[0] != "t1" {
		t.Fatalf("deleted trials = %v, want [t1]", got)
	}
}

func TestMergeTrialModifyConflictResolvesTitleAndCaption(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	trial := newTrial("t1")
	trial.Title = strPtr("Run")
	base.AddTrial(trial, true)
	local, external, status := syncedPair(base)

	lv, _ := local.FindTrial("t1")
	lv.Title = strPtr("Run A")
	lv.Caption = strPtr("cap A")
	local.UpdateTrial(lv)
	ev, _ := external.FindTrial("t1")
	ev.Title = strPtr("Run B")
	ev.Caption = strPtr("cap B")
	external.UpdateTrial(ev)

	NewExperimentMerger(&local, status).MergeFrom(&external)

	got, _ := local.FindTrial("t1")
	if got.Title == nil || *got.Title != "Run A / Run B" {
		t.Fatalf("title = %v, want %q", got.Title, "Run A / Run B")
	}
	if got.Caption == nil || *got.Caption != "cap A / cap B" {
		t.Fatalf("caption = %v, want %q", got.Caption, "cap A / cap B")
	}
}

func TestMergeTrialModifyPreservesLocalNoteMembership(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddTrial(newTrial("t1"), true)
	local, external, status := syncedPair(base)

	local.AddTrialNote(textNote("n-local", "kept"), "t1")
	ev, _ := external.FindTrial("t1")
	ev.Title = strPtr("renamed")
	external.UpdateTrial(ev)

	NewExperimentMerger(&local, status).MergeFrom(&external)

	if _, owner, ok := local.FindNote("n-local"); !ok || owner != "t1" {
		t.Fatal("local trial note clobbered by external trial modify")
	}
	got, _ := local.FindTrial("t1")
	if got.Title == nil || *got.Title != "renamed" {
		t.Fatalf("title = %v, want renamed", got.Title)
	}
}

func TestMergeTotalTrialsTakesMax(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	local, external, status := syncedPair(base)
	local.AddTrial(newTrial("t-local"), true)
	external.AddTrial(newTrial("t-ext-1"), true)
	external.AddTrial(newTrial("t-ext-2"), true)

	NewExperimentMerger(&local, status).MergeFrom(&external)

	// Local counted one recording, external counted two; the merged counter
	// never moves backward on either replica.
	if local.TotalTrials != 2 {
		t.Fatalf("TotalTrials = %d, want 2", local.TotalTrials)
	}
}

func TestMergeGarbageCollectionNoDuplicates(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	base.AddTrial(newTrial("t1"), true)
	base.AddNote(pictureNote("p1", "assets/p1.jpg"))
	local, external, status := syncedPair(base)
	external.RemoveTrial("t1")
	external.RemoveNote("p1")
	// A replica that logged the same deletion twice must not produce
	// duplicate garbage-collection entries.
	external.Changes = append(external.Changes,
		domain.Change{Element: domain.ElementTrial, Type: domain.ChangeDelete, ElementID: "t1"},
		domain.Change{Element: domain.ElementNote, Type: domain.ChangeDelete, ElementID: "p1"},
	)

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if got := merger.DeletedTrialIDs(); len(got) != 1 {
		t.Fatalf("deleted trials = %v, want exactly one entry", got)
	}
	if got := merger.DeletedAssetPaths(); len(got) != 1 {
		t.Fatalf("deleted assets = %v, want exactly one entry", got)
	}
}

// Scenario: local has note N with caption "caption"; external updates the
// caption to "caption2" and then deletes N. The merged result holds zero
// notes and no asset paths (text notes carry no assets).
func TestMergeModifyThenDeleteSequence(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	n := textNote("n1", "body")
	n.Caption = strPtr("caption")
	base.AddNote(n)
	local, external, status := syncedPair(base)

	ev, _, _ := external.FindNote("n1")
	ev.Caption = strPtr("caption2")
	external.UpdateNote(ev)
	external.RemoveNote("n1")

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if len(local.Notes) != 0 {
		t.Fatalf("notes = %d, want 0", len(local.Notes))
	}
	if got := merger.DeletedAssetPaths(); len(got) != 0 {
		t.Fatalf("deleted assets = %v, want none for a text note", got)
	}
}

func TestMergeCursorAdvances(t *testing.T) {
	base := domain.Experiment{ID: "exp1"}
	local, external, status := syncedPair(base)
	external.AddNote(textNote("n1", "x"))
	external.AddNote(textNote("n2", "y"))

	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(&external)

	if got := merger.MergedChangeCursor(); got != len(external.Changes) {
		t.Fatalf("cursor = %d, want %d", got, len(external.Changes))
	}
}

func TestReplaceExperimentCopiesSensorConfiguration(t *testing.T) {
	local := domain.Experiment{
		ID:               "exp1",
		AvailableSensors: []domain.SensorSpec{{SensorID: "accel", Name: "Accelerometer", Units: "m/s2"}},
		SensorLayouts:    []domain.SensorLayout{{SensorID: "accel", ColorIndex: 2}},
		SensorTriggers:   []domain.SensorTrigger{{TriggerID: "tr1", SensorID: "accel", Condition: "above", Value: 9.8}},
	}
	target := domain.Experiment{ID: "exp1"}

	NewExperimentMerger(&local, domain.SyncStatus{}).ReplaceExperiment(&target)

	if !reflect.DeepEqual(target.AvailableSensors, local.AvailableSensors) {
		t.Fatalf("sensors = %+v, want %+v", target.AvailableSensors, local.AvailableSensors)
	}
	if !reflect.DeepEqual(target.SensorLayouts, local.SensorLayouts) {
		t.Fatalf("layouts = %+v, want %+v", target.SensorLayouts, local.SensorLayouts)
	}
	if !reflect.DeepEqual(target.SensorTriggers, local.SensorTriggers) {
		t.Fatalf("triggers = %+v, want %+v", target.SensorTriggers, local.SensorTriggers)
	}
}
