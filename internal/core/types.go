package core

import "fieldbook/pkg/domain"

type (
	ElementType        = domain.ElementType
	ChangeType         = domain.ChangeType
	Change             = domain.Change
	NoteKind           = domain.NoteKind
	Note               = domain.Note
	Trial              = domain.Trial
	Experiment         = domain.Experiment
	SyncExperiment     = domain.SyncExperiment
	ExperimentLibrary  = domain.ExperimentLibrary
	SyncStatus         = domain.SyncStatus
	Recording          = domain.Recording
	EntityType         = domain.EntityType
	Action             = domain.Action
	Severity           = domain.Severity
	StoreMutation      = domain.StoreMutation
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	ElementExperiment = domain.ElementExperiment
	ElementNote       = domain.ElementNote
	ElementTrial      = domain.ElementTrial
)

const (
	ChangeAdd    = domain.ChangeAdd
	ChangeDelete = domain.ChangeDelete
	ChangeModify = domain.ChangeModify
)

const (
	NoteText     = domain.NoteText
	NotePicture  = domain.NotePicture
	NoteSnapshot = domain.NoteSnapshot
	NoteTrigger  = domain.NoteTrigger
)

const (
	EntityExperiment = domain.EntityExperiment
	EntityLibrary    = domain.EntityLibrary
	EntitySyncStatus = domain.EntitySyncStatus
	EntityRecording  = domain.EntityRecording
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
