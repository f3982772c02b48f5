package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateExperiment(Experiment) (Experiment, error)
	SaveExperiment(Experiment) (Experiment, error)
	UpdateExperiment(id string, mutator func(*Experiment) error) (Experiment, error)
	DeleteExperiment(id string) error
	SaveLibrary(ExperimentLibrary) error
	PutSyncStatus(SyncStatus) error
	DeleteSyncStatus(experimentID string) error
	AppendRecordings([]Recording) error
	DeleteTrialData(trialIDs []string) (int, error)
	FindExperiment(id string) (Experiment, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListExperiments() []Experiment
	FindExperiment(id string) (Experiment, bool)
	Library() ExperimentLibrary
	FindSyncStatus(experimentID string) (SyncStatus, bool)
	ListTrialRecordings(trialID string) []Recording
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetExperiment(id string) (Experiment, bool)
	ListExperiments() []Experiment
	GetLibrary() ExperimentLibrary
	GetSyncStatus(experimentID string) (SyncStatus, bool)
	ListTrialRecordings(trialID string) []Recording
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return string(e.Entity) + " " + e.ID + " not found"
}
