package core

import (
	"context"
	"fmt"

	"fieldbook/pkg/domain"
)

// NewChangeLogIntegrityRule returns the in-transaction rule enforcing that an
// experiment's change log stays append-only and well-formed: entries are
// never rewritten or dropped, reference a known element type and change
// type, and carry a non-empty element ID.
func NewChangeLogIntegrityRule() domain.Rule {
	return changeLogIntegrityRule{}
}

type changeLogIntegrityRule struct{}

func (changeLogIntegrityRule) Name() string { return "changelog_integrity" }

func (changeLogIntegrityRule) Evaluate(_ context.Context, _ domain.RuleView, muts []domain.StoreMutation) (domain.Result, error) {
	res := domain.Result{}
	for _, mut := range muts {
		if mut.Entity != domain.EntityExperiment {
			continue
		}
		after, ok := mut.After.(domain.Experiment)
		if !ok {
			continue
		}
		for i, c := range after.Changes {
			if !validElement(c.Element) || !validChangeType(c.Type) || c.ElementID == "" {
				res.Violations = append(res.Violations, changeLogViolation(after.ID, fmt.Sprintf("experiment %s change %d is malformed (%s %s %q)", after.ID, i, c.Element, c.Type, c.ElementID)))
			}
		}
		before, ok := mut.Before.(domain.Experiment)
		if !ok || mut.Action != domain.ActionUpdate {
			continue
		}
		if len(after.Changes) < len(before.Changes) {
			res.Violations = append(res.Violations, changeLogViolation(after.ID, fmt.Sprintf("experiment %s change log shrank from %d to %d entries", after.ID, len(before.Changes), len(after.Changes))))
			continue
		}
		for i, prev := range before.Changes {
			if after.Changes[i] != prev {
				res.Violations = append(res.Violations, changeLogViolation(after.ID, fmt.Sprintf("experiment %s change %d was rewritten", after.ID, i)))
				break
			}
		}
	}
	return res, nil
}

func validElement(e domain.ElementType) bool {
	switch e {
	case domain.ElementExperiment, domain.ElementNote, domain.ElementTrial:
		return true
	}
	return false
}

func validChangeType(t domain.ChangeType) bool {
	switch t {
	case domain.ChangeAdd, domain.ChangeDelete, domain.ChangeModify:
		return true
	}
	return false
}

func changeLogViolation(id, message string) domain.Violation {
	return domain.Violation{
		Rule:     "changelog_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   domain.EntityExperiment,
		EntityID: id,
	}
}
