// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compose

import (
	"fmt"

	"github.com/pdiddy/citations-engine/pkg/types"
)

// Assessment is the termination check over a retrieval state.
type Assessment struct {
	// Domains is the number of distinct domains with a successful fetched
	// document. Attachments are not counted.
	Domains int

	// Primary is the number of successful Primary-tier fetched documents.
	Primary int

	// CriteriaMet reports whether the budget's source requirement holds:
	// at least one Primary document when RequirePrimarySource is set,
	// otherwise at least MinSources distinct domains.
	CriteriaMet bool

	Confidence types.Confidence

	// Shortfall describes the unmet requirement, empty when CriteriaMet.
	Shortfall string
}

// Assess evaluates state against budget. It is used by the orchestrator to
// decide on escalation and by Compose to assign confidence.
func Assess(state *types.RetrievalState, budget types.RetrievalBudget) Assessment {
	a := Assessment{
		Domains: state.DistinctDomains(),
		Primary: state.PrimaryCount(),
	}

	if budget.RequirePrimarySource {
		a.CriteriaMet = a.Primary >= 1
		if !a.CriteriaMet {
			a.Shortfall = "no primary source found"
		}
	} else {
		a.CriteriaMet = a.Domains >= budget.MinSources
		if !a.CriteriaMet {
			a.Shortfall = fmt.Sprintf("only %d of %d required independent sources found", a.Domains, budget.MinSources)
		}
	}

	switch {
	case a.CriteriaMet && a.Primary >= 1 && a.Domains >= 2:
		a.Confidence = types.ConfidenceHigh
	case a.CriteriaMet:
		a.Confidence = types.ConfidenceMedium
	default:
		a.Confidence = types.ConfidenceLow
	}
	return a
}
