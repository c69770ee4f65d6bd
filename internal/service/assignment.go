package service

import (
	"context"
	"strings"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const NoTechnicianAvailable = "No technician available"

type TechnicianSource interface {
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
}

type EligibilityResult struct {
	Eligible   []models.Technician
	ReasonCode string
	ReasonText string
	Stages     []EligibilityStage
}

type EligibilityStage struct {
	Name       string
	Candidates []models.Technician
}

// FilterEligibleTechnicians narrows the roster to available technicians with the
// category skill, preserving registration order. Each stage is recorded for
// debugging.
func FilterEligibleTechnicians(roster []models.Technician, category string) EligibilityResult {
	result := EligibilityResult{}
	result.Stages = append(result.Stages, EligibilityStage{
		Name:       "roster",
		Candidates: roster,
	})
	if len(roster) == 0 {
		result.ReasonCode = "EMPTY_ROSTER"
		result.ReasonText = "No technicians registered"
		return result
	}

	available := filterTechnicians(roster, func(t models.Technician) bool {
		return t.Available
	})
	result.Stages = append(result.Stages, EligibilityStage{
		Name:       "availability_rule",
		Candidates: available,
	})
	if len(available) == 0 {
		result.ReasonCode = "NONE_AVAILABLE"
		result.ReasonText = "All technicians are unavailable"
		return result
	}

	skilled := filterTechnicians(available, func(t models.Technician) bool {
		return hasSkill(t.Skills, category)
	})
	result.Stages = append(result.Stages, EligibilityStage{
		Name:       "skill_rule",
		Candidates: skilled,
	})
	if len(skilled) == 0 {
		result.ReasonCode = "SKILL_MISMATCH"
		result.ReasonText = "No available technician has skill " + category
		return result
	}

	result.Eligible = skilled
	return result
}

// AssignTechnician returns the first eligible technician in registration order.
func AssignTechnician(roster []models.Technician, category string) string {
	for _, t := range roster {
		if t.Available && hasSkill(t.Skills, category) {
			return t.Name
		}
	}
	return NoTechnicianAvailable
}

type ResourceAssigner struct {
	Technicians TechnicianSource
}

func (r *ResourceAssigner) Assign(ctx context.Context, category string) (string, error) {
	roster, err := r.Technicians.ListTechnicians(ctx)
	if err != nil {
		return "", err
	}
	return AssignTechnician(roster, category), nil
}

func hasSkill(skills []string, target string) bool {
	for _, s := range skills {
		if strings.EqualFold(strings.TrimSpace(s), target) {
			return true
		}
	}
	return false
}

func filterTechnicians(roster []models.Technician, keep func(models.Technician) bool) []models.Technician {
	out := make([]models.Technician, 0, len(roster))
	for _, t := range roster {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
