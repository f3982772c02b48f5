// Package memory provides an in-memory implementation of the fieldbook
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"sync"
	"time"

	"fieldbook/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Experiment aliases domain.Experiment for in-memory persistence operations.
	Experiment = domain.Experiment
	// ExperimentLibrary aliases domain.ExperimentLibrary.
	ExperimentLibrary = domain.ExperimentLibrary
	// SyncStatus aliases domain.SyncStatus.
	SyncStatus = domain.SyncStatus
	// Recording aliases domain.Recording.
	Recording = domain.Recording
	// StoreMutation aliases domain.StoreMutation captured in transactions.
	StoreMutation = domain.StoreMutation
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	experiments map[string]Experiment
	library     ExperimentLibrary
	syncStatus  map[string]SyncStatus
	recordings  map[string][]Recording
}

// Snapshot captures a point-in-time clone of the store state. It is the unit
// of whole-state serialization shared by the sqlite and postgres backends,
// and the shape in which an external replica is materialized before a merge.
type Snapshot struct {
	Experiments map[string]Experiment  `json:"experiments"`
	Library     ExperimentLibrary      `json:"library"`
	SyncStatus  map[string]SyncStatus  `json:"sync_status"`
	Recordings  map[string][]Recording `json:"recordings"`
}

func newMemoryState() memoryState {
	return memoryState{
		experiments: make(map[string]Experiment),
		syncStatus:  make(map[string]SyncStatus),
		recordings:  make(map[string][]Recording),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.experiments {
		cloned.experiments[k] = v.Clone()
	}
	cloned.library = s.library.Clone()
	for k, v := range s.syncStatus {
		cloned.syncStatus[k] = v
	}
	for k, v := range s.recordings {
		cloned.recordings[k] = append([]Recording(nil), v...)
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{
		Experiments: make(map[string]Experiment, len(state.experiments)),
		Library:     state.library.Clone(),
		SyncStatus:  make(map[string]SyncStatus, len(state.syncStatus)),
		Recordings:  make(map[string][]Recording, len(state.recordings)),
	}
	for k, v := range state.experiments {
		snap.Experiments[k] = v.Clone()
	}
	for k, v := range state.syncStatus {
		snap.SyncStatus[k] = v
	}
	for k, v := range state.recordings {
		snap.Recordings[k] = append([]Recording(nil), v...)
	}
	return snap
}

func memoryStateFromSnapshot(snap Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range snap.Experiments {
		state.experiments[k] = v.Clone()
	}
	state.library = snap.Library.Clone()
	for k, v := range snap.SyncStatus {
		state.syncStatus[k] = v
	}
	for k, v := range snap.Recordings {
		state.recordings[k] = append([]Recording(nil), v...)
	}
	return state
}

// Store provides an in-memory transactional store for the fieldbook domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// RulesEngine returns the engine evaluated on every transaction.
func (s *Store) RulesEngine() *RulesEngine { return s.engine }

// NowFunc returns the clock used to stamp transactions.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snap)
}

// ExportState returns a deep copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

type transaction struct {
	store *Store
	state memoryState
	muts  []StoreMutation
	now   time.Time
}

var _ Transaction = (*transaction)(nil)

type transactionView struct {
	state *memoryState
}

var _ TransactionView = transactionView{}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := transactionView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.muts)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(transactionView{state: &snapshot})
}

func (tx *transaction) record(mut StoreMutation) {
	tx.muts = append(tx.muts, mut)
}

// Snapshot exposes the transactional state to callers needing reads mid-transaction.
func (tx *transaction) Snapshot() TransactionView {
	return transactionView{state: &tx.state}
}

// CreateExperiment stores a new experiment within the transaction.
func (tx *transaction) CreateExperiment(e Experiment) (Experiment, error) {
	if e.ID == "" {
		e.ID = domain.NewID()
	}
	if _, exists := tx.state.experiments[e.ID]; exists {
		return Experiment{}, duplicateError(domain.EntityExperiment, e.ID)
	}
	tx.state.experiments[e.ID] = e.Clone()
	tx.record(StoreMutation{Entity: domain.EntityExperiment, Action: domain.ActionCreate, EntityID: e.ID, After: e.Clone()})
	return e.Clone(), nil
}

// SaveExperiment upserts an experiment, recording an update when it replaces
// an existing record. This is the entry point used after a merge.
func (tx *transaction) SaveExperiment(e Experiment) (Experiment, error) {
	if e.ID == "" {
		return Experiment{}, domain.ErrNotFound{Entity: domain.EntityExperiment, ID: ""}
	}
	current, exists := tx.state.experiments[e.ID]
	tx.state.experiments[e.ID] = e.Clone()
	if exists {
		tx.record(StoreMutation{Entity: domain.EntityExperiment, Action: domain.ActionUpdate, EntityID: e.ID, Before: current.Clone(), After: e.Clone()})
	} else {
		tx.record(StoreMutation{Entity: domain.EntityExperiment, Action: domain.ActionCreate, EntityID: e.ID, After: e.Clone()})
	}
	return e.Clone(), nil
}

// UpdateExperiment mutates an experiment using the provided mutator function.
func (tx *transaction) UpdateExperiment(id string, mutator func(*Experiment) error) (Experiment, error) {
	current, ok := tx.state.experiments[id]
	if !ok {
		return Experiment{}, domain.ErrNotFound{Entity: domain.EntityExperiment, ID: id}
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(&working); err != nil {
		return Experiment{}, err
	}
	working.ID = id
	tx.state.experiments[id] = working.Clone()
	tx.record(StoreMutation{Entity: domain.EntityExperiment, Action: domain.ActionUpdate, EntityID: id, Before: before, After: working.Clone()})
	return working.Clone(), nil
}

// DeleteExperiment removes an experiment from the transaction state.
func (tx *transaction) DeleteExperiment(id string) error {
	current, ok := tx.state.experiments[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityExperiment, ID: id}
	}
	delete(tx.state.experiments, id)
	tx.record(StoreMutation{Entity: domain.EntityExperiment, Action: domain.ActionDelete, EntityID: id, Before: current.Clone()})
	return nil
}

// SaveLibrary replaces the experiment library collection.
func (tx *transaction) SaveLibrary(l ExperimentLibrary) error {
	before := tx.state.library.Clone()
	tx.state.library = l.Clone()
	tx.record(StoreMutation{Entity: domain.EntityLibrary, Action: domain.ActionUpdate, Before: before, After: l.Clone()})
	return nil
}

// PutSyncStatus upserts the sync bookkeeping record for an experiment.
func (tx *transaction) PutSyncStatus(status SyncStatus) error {
	if status.ExperimentID == "" {
		return domain.ErrNotFound{Entity: domain.EntitySyncStatus, ID: ""}
	}
	before, exists := tx.state.syncStatus[status.ExperimentID]
	tx.state.syncStatus[status.ExperimentID] = status
	mut := StoreMutation{Entity: domain.EntitySyncStatus, Action: domain.ActionCreate, EntityID: status.ExperimentID, After: status}
	if exists {
		mut.Action = domain.ActionUpdate
		mut.Before = before
	}
	tx.record(mut)
	return nil
}

// DeleteSyncStatus removes the sync record for an experiment; missing records are not an error.
func (tx *transaction) DeleteSyncStatus(experimentID string) error {
	before, ok := tx.state.syncStatus[experimentID]
	if !ok {
		return nil
	}
	delete(tx.state.syncStatus, experimentID)
	tx.record(StoreMutation{Entity: domain.EntitySyncStatus, Action: domain.ActionDelete, EntityID: experimentID, Before: before})
	return nil
}

// AppendRecordings stores trial sensor readings in the sensor-data bucket.
func (tx *transaction) AppendRecordings(recordings []Recording) error {
	for _, r := range recordings {
		if r.TrialID == "" {
			return domain.ErrNotFound{Entity: domain.EntityRecording, ID: ""}
		}
		tx.state.recordings[r.TrialID] = append(tx.state.recordings[r.TrialID], r)
	}
	if len(recordings) > 0 {
		tx.record(StoreMutation{Entity: domain.EntityRecording, Action: domain.ActionCreate, After: append([]Recording(nil), recordings...)})
	}
	return nil
}

// DeleteTrialData drops the sensor readings for the given trials, returning
// the number of removed readings. Unknown trial IDs are ignored.
func (tx *transaction) DeleteTrialData(trialIDs []string) (int, error) {
	removed := 0
	for _, id := range trialIDs {
		rs, ok := tx.state.recordings[id]
		if !ok {
			continue
		}
		removed += len(rs)
		delete(tx.state.recordings, id)
		tx.record(StoreMutation{Entity: domain.EntityRecording, Action: domain.ActionDelete, EntityID: id, Before: append([]Recording(nil), rs...)})
	}
	return removed, nil
}

// FindExperiment retrieves an experiment by ID from the transaction state.
func (tx *transaction) FindExperiment(id string) (Experiment, bool) {
	e, ok := tx.state.experiments[id]
	if !ok {
		return Experiment{}, false
	}
	return e.Clone(), true
}

// ListExperiments returns all experiments within the view snapshot.
func (v transactionView) ListExperiments() []Experiment {
	out := make([]Experiment, 0, len(v.state.experiments))
	for _, e := range v.state.experiments {
		out = append(out, e.Clone())
	}
	return out
}

// FindExperiment retrieves an experiment by ID from the snapshot.
func (v transactionView) FindExperiment(id string) (Experiment, bool) {
	e, ok := v.state.experiments[id]
	if !ok {
		return Experiment{}, false
	}
	return e.Clone(), true
}

// Library returns the library collection from the snapshot.
func (v transactionView) Library() ExperimentLibrary {
	return v.state.library.Clone()
}

// FindSyncStatus retrieves the sync record for an experiment from the snapshot.
func (v transactionView) FindSyncStatus(experimentID string) (SyncStatus, bool) {
	status, ok := v.state.syncStatus[experimentID]
	return status, ok
}

// ListTrialRecordings returns the sensor readings stored for a trial.
func (v transactionView) ListTrialRecordings(trialID string) []Recording {
	return append([]Recording(nil), v.state.recordings[trialID]...)
}

// Read helpers ---------------------------------------------------------------

// GetExperiment retrieves an experiment by ID from committed state.
func (s *Store) GetExperiment(id string) (Experiment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.experiments[id]
	if !ok {
		return Experiment{}, false
	}
	return e.Clone(), true
}

// ListExperiments returns all experiments from committed state.
func (s *Store) ListExperiments() []Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Experiment, 0, len(s.state.experiments))
	for _, e := range s.state.experiments {
		out = append(out, e.Clone())
	}
	return out
}

// GetLibrary returns the committed library collection.
func (s *Store) GetLibrary() ExperimentLibrary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.library.Clone()
}

// GetSyncStatus retrieves the committed sync record for an experiment.
func (s *Store) GetSyncStatus(experimentID string) (SyncStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.state.syncStatus[experimentID]
	return status, ok
}

// ListTrialRecordings returns the committed sensor readings for a trial.
func (s *Store) ListTrialRecordings(trialID string) []Recording {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Recording(nil), s.state.recordings[trialID]...)
}

type duplicateRecordError struct {
	entity domain.EntityType
	id     string
}

func (e duplicateRecordError) Error() string {
	return string(e.entity) + " " + e.id + " already exists"
}

func duplicateError(entity domain.EntityType, id string) error {
	return duplicateRecordError{entity: entity, id: id}
}
