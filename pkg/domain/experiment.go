package domain

// Aggregate mutation API. Every mutation that actually changes state appends
// exactly one Change entry to the experiment's log; a no-op appends nothing.
// The boolean results signal whether the mutation was applied, so callers can
// distinguish a no-op from an edit without inspecting the log.

// FindNote locates a note by ID at the experiment level or inside any trial.
// The second result is the owning trial ID, empty for experiment-level notes.
func (e *Experiment) FindNote(id string) (Note, string, bool) {
	for _, n := range e.Notes {
		if n.ID == id {
			return n.Clone(), "", true
		}
	}
	for _, t := range e.Trials {
		for _, n := range t.Notes {
			if n.ID == id {
				return n.Clone(), t.ID, true
			}
		}
	}
	return Note{}, "", false
}

// FindTrial locates a trial by ID.
func (e *Experiment) FindTrial(id string) (Trial, bool) {
	for _, t := range e.Trials {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return Trial{}, false
}

// ContainsElement reports whether any note or trial with the given ID exists.
func (e *Experiment) ContainsElement(id string) bool {
	if _, _, ok := e.FindNote(id); ok {
		return true
	}
	_, ok := e.FindTrial(id)
	return ok
}

// AddNote appends a note to the experiment-level collection and records an
// Add change. It is a no-op when a note with the same ID already exists
// anywhere in the aggregate.
func (e *Experiment) AddNote(n Note) bool {
	if _, _, exists := e.FindNote(n.ID); exists {
		return false
	}
	e.Notes = append(e.Notes, n.Clone())
	e.appendChange(Change{Element: ElementNote, Type: ChangeAdd, ElementID: n.ID})
	return true
}

// AddTrialNote appends a note to the identified trial and records an Add
// change on the experiment's log. It is a no-op when the trial is missing or
// a note with the same ID already exists.
func (e *Experiment) AddTrialNote(n Note, trialID string) bool {
	if _, _, exists := e.FindNote(n.ID); exists {
		return false
	}
	for i := range e.Trials {
		if e.Trials[i].ID == trialID {
			e.Trials[i].Notes = append(e.Trials[i].Notes, n.Clone())
			e.appendChange(Change{Element: ElementNote, Type: ChangeAdd, ElementID: n.ID})
			return true
		}
	}
	return false
}

// RemoveNote removes the experiment-level note with the given ID and records
// a Delete change. Missing IDs fail silently, returning false with no log
// entry.
func (e *Experiment) RemoveNote(id string) (Note, bool) {
	for i, n := range e.Notes {
		if n.ID == id {
			removed := n.Clone()
			e.Notes = append(e.Notes[:i], e.Notes[i+1:]...)
			e.appendChange(Change{Element: ElementNote, Type: ChangeDelete, ElementID: id})
			return removed, true
		}
	}
	return Note{}, false
}

// RemoveTrialNote removes a note from the identified trial and records a
// Delete change. Missing trials or IDs fail silently.
func (e *Experiment) RemoveTrialNote(id, trialID string) (Note, bool) {
	for ti := range e.Trials {
		if e.Trials[ti].ID != trialID {
			continue
		}
		for i, n := range e.Trials[ti].Notes {
			if n.ID == id {
				removed := n.Clone()
				e.Trials[ti].Notes = append(e.Trials[ti].Notes[:i], e.Trials[ti].Notes[i+1:]...)
				e.appendChange(Change{Element: ElementNote, Type: ChangeDelete, ElementID: id})
				return removed, true
			}
		}
	}
	return Note{}, false
}

// UpdateNote replaces the stored note carrying the same ID, wherever it
// lives, and records a Modify change. The ID must pre-exist; otherwise
// nothing happens and no change is logged.
func (e *Experiment) UpdateNote(n Note) bool {
	for i, existing := range e.Notes {
		if existing.ID == n.ID {
			e.Notes[i] = n.Clone()
			e.appendChange(Change{Element: ElementNote, Type: ChangeModify, ElementID: n.ID})
			return true
		}
	}
	for ti := range e.Trials {
		for i, existing := range e.Trials[ti].Notes {
			if existing.ID == n.ID {
				e.Trials[ti].Notes[i] = n.Clone()
				e.appendChange(Change{Element: ElementNote, Type: ChangeModify, ElementID: n.ID})
				return true
			}
		}
	}
	return false
}

// AddTrial appends a trial and records an Add change. recording marks a trial
// created by an active recording session, which is the only event that
// advances the monotonic TotalTrials counter. It is a no-op when a trial with
// the same ID already exists.
func (e *Experiment) AddTrial(t Trial, recording bool) bool {
	if _, exists := e.FindTrial(t.ID); exists {
		return false
	}
	e.Trials = append(e.Trials, t.Clone())
	if recording {
		e.TotalTrials++
	}
	e.appendChange(Change{Element: ElementTrial, Type: ChangeAdd, ElementID: t.ID})
	return true
}

// RemoveTrial removes the trial with the given ID and records a single
// Delete change. Child notes are not logged individually; the trial's Delete
// change is authoritative for merge purposes. TotalTrials is unaffected.
func (e *Experiment) RemoveTrial(id string) (Trial, bool) {
	for i, t := range e.Trials {
		if t.ID == id {
			removed := t.Clone()
			e.Trials = append(e.Trials[:i], e.Trials[i+1:]...)
			e.appendChange(Change{Element: ElementTrial, Type: ChangeDelete, ElementID: id})
			return removed, true
		}
	}
	return Trial{}, false
}

// UpdateTrial replaces the stored trial carrying the same ID and records a
// Modify change. The ID must pre-exist.
func (e *Experiment) UpdateTrial(t Trial) bool {
	for i, existing := range e.Trials {
		if existing.ID == t.ID {
			e.Trials[i] = t.Clone()
			e.appendChange(Change{Element: ElementTrial, Type: ChangeModify, ElementID: t.ID})
			return true
		}
	}
	return false
}

// SetTitle replaces the experiment title and always records a Modify change,
// even when the value is unchanged: a repeated title edit is still a distinct
// edit event in this model.
func (e *Experiment) SetTitle(title *string) {
	e.Title = cloneStringPtr(title)
	e.appendChange(Change{Element: ElementExperiment, Type: ChangeModify, ElementID: e.ID})
}

func (e *Experiment) appendChange(c Change) {
	e.Changes = append(e.Changes, c)
}
