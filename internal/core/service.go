package core

import (
	"context"
	"fmt"
	"time"

	"fieldbook/pkg/domain"
)

// AssetStore is the collaborator that physically deletes asset files
// referenced by removed notes. Failure to delete is logged, never reported
// back into a merge result.
type AssetStore interface {
	Delete(ctx context.Context, key string) (bool, error)
}

// SyncService wires the merge engine to its collaborators: the persistent
// store that loads and saves aggregates, the asset store that garbage
// collects image files, and the sensor-data bucket that drops time series
// for deleted trials. The merge itself never performs I/O; the service does
// all of it before and after.
type SyncService struct {
	store   domain.PersistentStore
	assets  AssetStore
	logger  Logger
	metrics MetricsRecorder
}

// Option customizes a SyncService.
type Option func(*SyncService)

// WithLogger installs a logger; the default discards everything.
func WithLogger(l Logger) Option {
	return func(s *SyncService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder; the default discards everything.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *SyncService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewSyncService constructs a service backed by the supplied store and asset
// store. assets may be nil when asset garbage collection is handled out of
// band.
func NewSyncService(store domain.PersistentStore, assets AssetStore, opts ...Option) *SyncService {
	s := &SyncService{
		store:   store,
		assets:  assets,
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *SyncService) Store() domain.PersistentStore { return s.store }

// SyncReport summarizes one experiment merge.
type SyncReport struct {
	ExperimentID      string
	AppliedChanges    int
	DeletedTrialIDs   []string
	DeletedAssetPaths []string
	RemovedAssets     int
	RemovedRecordings int
}

// MergeExperiment reconciles a downloaded external replica into the local
// experiment of the same ID, persists the merged aggregate and the advanced
// sync cursor, drops sensor data for deleted trials, and garbage-collects
// orphaned assets.
func (s *SyncService) MergeExperiment(ctx context.Context, external *domain.Experiment) (SyncReport, error) {
	start := time.Now()
	report, err := s.mergeExperiment(ctx, external)
	s.metrics.Observe(ctx, "merge_experiment", err == nil, time.Since(start))
	return report, err
}

func (s *SyncService) mergeExperiment(ctx context.Context, external *domain.Experiment) (SyncReport, error) {
	local, ok := s.store.GetExperiment(external.ID)
	if !ok {
		return SyncReport{}, domain.ErrNotFound{Entity: domain.EntityExperiment, ID: external.ID}
	}
	status, _ := s.store.GetSyncStatus(external.ID)
	status.ExperimentID = external.ID

	before := len(local.Changes)
	merger := NewExperimentMerger(&local, status)
	merger.MergeFrom(external)

	status.MergedChangeCursor = merger.MergedChangeCursor()
	status.LastSyncedChangeCount = len(local.Changes)
	status.Dirty = false

	report := SyncReport{
		ExperimentID:      external.ID,
		AppliedChanges:    len(local.Changes) - before,
		DeletedTrialIDs:   merger.DeletedTrialIDs(),
		DeletedAssetPaths: merger.DeletedAssetPaths(),
	}

	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.SaveExperiment(local); err != nil {
			return fmt.Errorf("save experiment %s: %w", local.ID, err)
		}
		if err := tx.PutSyncStatus(status); err != nil {
			return fmt.Errorf("save sync status %s: %w", local.ID, err)
		}
		removed, err := tx.DeleteTrialData(report.DeletedTrialIDs)
		if err != nil {
			return fmt.Errorf("delete trial data: %w", err)
		}
		report.RemovedRecordings = removed
		return nil
	})
	if err != nil {
		return SyncReport{}, err
	}

	report.RemovedAssets = s.collectAssets(ctx, report.DeletedAssetPaths)
	s.logger.Info("merged experiment",
		"experiment_id", report.ExperimentID,
		"applied_changes", report.AppliedChanges,
		"deleted_trials", len(report.DeletedTrialIDs),
		"deleted_assets", len(report.DeletedAssetPaths),
	)
	return report, nil
}

func (s *SyncService) collectAssets(ctx context.Context, paths []string) int {
	if s.assets == nil || len(paths) == 0 {
		return 0
	}
	removed := 0
	for _, path := range paths {
		existed, err := s.assets.Delete(ctx, path)
		if err != nil {
			s.logger.Warn("asset delete failed", "key", path, "error", err)
			continue
		}
		if existed {
			removed++
		}
	}
	return removed
}

// MergeLibrary reconciles the external experiment library into the local
// one, then records the server-side archived flags observed during the merge
// in the sync-status side table.
func (s *SyncService) MergeLibrary(ctx context.Context, external domain.ExperimentLibrary) error {
	start := time.Now()
	err := s.mergeLibrary(ctx, external)
	s.metrics.Observe(ctx, "merge_library", err == nil, time.Since(start))
	return err
}

func (s *SyncService) mergeLibrary(ctx context.Context, external domain.ExperimentLibrary) error {
	library := s.store.GetLibrary()
	merger := NewLibraryMerger(&library)
	merger.MergeFrom(external, func(experimentID string) (bool, bool) {
		status, ok := s.store.GetSyncStatus(experimentID)
		return status.ServerArchived, ok
	})
	_, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.SaveLibrary(library); err != nil {
			return fmt.Errorf("save library: %w", err)
		}
		for _, ext := range external.Experiments {
			status, _ := tx.Snapshot().FindSyncStatus(ext.ExperimentID)
			status.ExperimentID = ext.ExperimentID
			status.ServerArchived = ext.Archived
			if err := tx.PutSyncStatus(status); err != nil {
				return fmt.Errorf("save sync status %s: %w", ext.ExperimentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("merged library", "experiments", len(library.Experiments), "folder_id", library.FolderID)
	return nil
}

// PrepareRemote copies the local experiment's sensor configuration onto a
// freshly materialized remote representation before its first upload. target
// is known to have no competing history, so this is a plain copy with no
// conflict handling.
func (s *SyncService) PrepareRemote(_ context.Context, experimentID string, target *domain.Experiment) error {
	local, ok := s.store.GetExperiment(experimentID)
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityExperiment, ID: experimentID}
	}
	merger := NewExperimentMerger(&local, domain.SyncStatus{})
	merger.ReplaceExperiment(target)
	return nil
}

// CreateExperiment persists a new experiment aggregate.
func (s *SyncService) CreateExperiment(ctx context.Context, experiment domain.Experiment) (domain.Experiment, Result, error) {
	var created domain.Experiment
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateExperiment(experiment)
		return err
	})
	return created, res, err
}

// UpdateExperiment mutates an experiment using the provided mutator.
func (s *SyncService) UpdateExperiment(ctx context.Context, id string, mutator func(*domain.Experiment) error) (domain.Experiment, Result, error) {
	var updated domain.Experiment
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateExperiment(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteExperiment removes an experiment record along with its sync status
// and sensor data, and marks the library entry deleted so the deletion
// propagates on the next library merge.
func (s *SyncService) DeleteExperiment(ctx context.Context, id string) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		experiment, ok := tx.FindExperiment(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityExperiment, ID: id}
		}
		if err := tx.DeleteExperiment(id); err != nil {
			return err
		}
		if err := tx.DeleteSyncStatus(id); err != nil {
			return err
		}
		trialIDs := make([]string, 0, len(experiment.Trials))
		for _, t := range experiment.Trials {
			trialIDs = append(trialIDs, t.ID)
		}
		if _, err := tx.DeleteTrialData(trialIDs); err != nil {
			return err
		}
		library := tx.Snapshot().Library()
		if entry, ok := library.Find(id); ok {
			entry.Deleted = true
			library.Put(entry)
			return tx.SaveLibrary(library)
		}
		return nil
	})
}

// AppendRecordings stores trial sensor readings.
func (s *SyncService) AppendRecordings(ctx context.Context, recordings []domain.Recording) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.AppendRecordings(recordings)
	})
}
