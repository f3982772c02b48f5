package core

import (
	"context"
	"fmt"

	"fieldbook/pkg/domain"
)

// NewTrialCounterRule returns the in-transaction rule enforcing that
// TotalTrials never decreases: the counter only advances when a recording
// session adds a trial and is untouched by deletion or archival.
func NewTrialCounterRule() domain.Rule {
	return trialCounterRule{}
}

type trialCounterRule struct{}

func (trialCounterRule) Name() string { return "trial_counter" }

func (trialCounterRule) Evaluate(_ context.Context, _ domain.RuleView, muts []domain.StoreMutation) (domain.Result, error) {
	res := domain.Result{}
	for _, mut := range muts {
		if mut.Entity != domain.EntityExperiment || mut.Action != domain.ActionUpdate {
			continue
		}
		before, okBefore := mut.Before.(domain.Experiment)
		after, okAfter := mut.After.(domain.Experiment)
		if !okBefore || !okAfter {
			continue
		}
		if after.TotalTrials < before.TotalTrials {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "trial_counter",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("experiment %s trial counter decreased from %d to %d", after.ID, before.TotalTrials, after.TotalTrials),
				Entity:   domain.EntityExperiment,
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}
