package domain

import "context"

// EntityType identifies the kind of record touched by a store mutation.
type EntityType string

// Entity type identifiers used in Mutation records and persistence buckets.
const (
	// EntityExperiment identifies an experiment aggregate record.
	EntityExperiment EntityType = "experiment"
	// EntityLibrary identifies the experiment library collection.
	EntityLibrary EntityType = "library"
	// EntitySyncStatus identifies a per-experiment sync status record.
	EntitySyncStatus EntityType = "sync_status"
	// EntityRecording identifies trial sensor recordings.
	EntityRecording EntityType = "recording"
)

// Action identifies the kind of store mutation.
type Action string

// Store mutation actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// StoreMutation describes one store-level state transition within a
// transaction. It is distinct from the aggregate's Change log: mutations
// exist only for rule evaluation and carry before/after snapshots.
type StoreMutation struct {
	Entity   EntityType
	Action   Action
	EntityID string
	Before   any
	After    any
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// RuleView provides read-only access to domain records for rule evaluation.
type RuleView interface {
	ListExperiments() []Experiment
	FindExperiment(id string) (Experiment, bool)
	Library() ExperimentLibrary
	FindSyncStatus(experimentID string) (SyncStatus, bool)
	ListTrialRecordings(trialID string) []Recording
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, muts []StoreMutation) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, muts []StoreMutation) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, muts)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
