package domain

import "testing"

func TestNoteCloneIsDeep(t *testing.T) {
	n := Note{
		ID:      "n1",
		Kind:    NotePicture,
		Caption: str("cap"),
		Picture: &PictureNote{ImagePath: "assets/p.jpg"},
	}
	cp := n.Clone()
	*cp.Caption = "mutated"
	cp.Picture.ImagePath = "assets/other.jpg"
	if *n.Caption != "cap" || n.Picture.ImagePath != "assets/p.jpg" {
		t.Fatalf("clone aliases original: %+v", n)
	}
}

func TestNoteAssetPath(t *testing.T) {
	pic := Note{ID: "p", Kind: NotePicture, Picture: &PictureNote{ImagePath: "assets/p.jpg"}}
	if path, ok := pic.AssetPath(); !ok || path != "assets/p.jpg" {
		t.Fatalf("path = %q ok=%v", path, ok)
	}
	txt := Note{ID: "t", Kind: NoteText, Text: &TextNote{Text: "x"}}
	if _, ok := txt.AssetPath(); ok {
		t.Fatal("text note reported an asset")
	}
	empty := Note{ID: "e", Kind: NotePicture, Picture: &PictureNote{}}
	if _, ok := empty.AssetPath(); ok {
		t.Fatal("empty image path reported as asset")
	}
}

func TestExperimentCloneIsDeep(t *testing.T) {
	e := Experiment{ID: "exp1", Title: str("Title")}
	e.AddTrial(Trial{ID: "t1", Notes: []Note{{ID: "n1", Kind: NoteText, Text: &TextNote{Text: "x"}}}}, true)
	e.AddNote(Note{ID: "n2", Kind: NoteSnapshot, Snapshot: &SnapshotNote{Snapshots: []SensorSnapshot{{SensorID: "accel", Value: 1}}}})

	cp := e.Clone()
	cp.Trials[0].Notes[0].Text.Text = "mutated"
	cp.Notes[0].Snapshot.Snapshots[0].Value = 99
	cp.Changes[0].ElementID = "mutated"
	*cp.Title = "mutated"

	if e.Trials[0].Notes[0].Text.Text != "x" {
		t.Fatal("trial note payload aliased")
	}
	if e.Notes[0].Snapshot.Snapshots[0].Value != 1 {
		t.Fatal("snapshot payload aliased")
	}
	if e.Changes[0].ElementID == "mutated" {
		t.Fatal("change log aliased")
	}
	if *e.Title != "Title" {
		t.Fatal("title aliased")
	}
}

func TestLibraryPutReplacesInPlace(t *testing.T) {
	l := ExperimentLibrary{}
	l.Put(SyncExperiment{ExperimentID: "a", LastModifiedMS: 1})
	l.Put(SyncExperiment{ExperimentID: "b", LastModifiedMS: 2})
	l.Put(SyncExperiment{ExperimentID: "a", LastModifiedMS: 10})

	if len(l.Experiments) != 2 {
		t.Fatalf("entries = %d, want 2", len(l.Experiments))
	}
	if l.Experiments[0].ExperimentID != "a" || l.Experiments[0].LastModifiedMS != 10 {
		t.Fatalf("entry a = %+v, want replaced in place", l.Experiments[0])
	}
}

func TestLibraryFindReturnsCopy(t *testing.T) {
	l := ExperimentLibrary{}
	l.Put(SyncExperiment{ExperimentID: "a", FileID: str("f1")})
	entry, _ := l.Find("a")
	*entry.FileID = "mutated"
	kept, _ := l.Find("a")
	if *kept.FileID != "f1" {
		t.Fatal("Find aliases stored entry")
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 32 {
			t.Fatalf("id %q has length %d, want 32 hex chars", id, len(id))
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
