package service

import (
	"context"
	"math/rand"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
)

// Candidate is the distributor's view of a technician eligible for a ticket.
type Candidate struct {
	ID      string
	Name    string
	Profile *string
}

// Distributor decides which technician receives a newly created ticket. It
// resolves an eligible tier from the organizational model and picks one
// member uniformly at random. The policy is deliberately load-oblivious:
// fairness over time is statistical, not tracked.
type Distributor struct {
	technicians repository.TechnicianRepository
	pick        func(n int) int
}

// NewDistributor constructs the distributor.
func NewDistributor(technicians repository.TechnicianRepository) *Distributor {
	return &Distributor{
		technicians: technicians,
		pick:        rand.Intn,
	}
}

// Resolve computes the winning tier of eligible technicians for a category.
// Precedence is strict, first non-empty tier wins:
//
//  1. technicians explicitly assigned to the category who belong to the
//     category's area,
//  2. any technician of the category's area whose profile tag does not
//     conflict (an unset tag never excludes),
//  3. any technician anywhere whose profile tag equals the category's tag.
//
// An empty result with a nil error means the ticket stays unassigned; that
// is a legitimate outcome, not a failure.
func (d *Distributor) Resolve(ctx context.Context, category *domain.TicketCategory) ([]Candidate, error) {
	if category.AreaID != nil {
		assigned, err := d.technicians.ListByCategoryAssignment(ctx, category.ID)
		if err != nil {
			return nil, err
		}
		tier := make([]Candidate, 0, len(assigned))
		for _, technician := range assigned {
			if technician.AreaID != nil && *technician.AreaID == *category.AreaID {
				tier = append(tier, toCandidate(technician))
			}
		}
		if len(tier) > 0 {
			return tier, nil
		}

		inArea, err := d.technicians.ListByArea(ctx, *category.AreaID)
		if err != nil {
			return nil, err
		}
		tier = tier[:0]
		for _, technician := range inArea {
			if !profileConflicts(technician.Profile, category.Profile) {
				tier = append(tier, toCandidate(technician))
			}
		}
		if len(tier) > 0 {
			return tier, nil
		}
	}

	// Legacy fallback: a global profile match that ignores areas entirely.
	// Preserved as-is for categories and technicians not yet migrated into
	// the area model.
	if category.Profile == nil || *category.Profile == "" {
		return nil, nil
	}
	matched, err := d.technicians.ListByProfile(ctx, *category.Profile)
	if err != nil {
		return nil, err
	}
	tier := make([]Candidate, 0, len(matched))
	for _, technician := range matched {
		tier = append(tier, toCandidate(technician))
	}
	return tier, nil
}

// Select picks one technician uniformly at random from the tier. An empty
// tier yields nil, meaning no assignment.
func (d *Distributor) Select(tier []Candidate) *Candidate {
	if len(tier) == 0 {
		return nil
	}
	chosen := tier[d.pick(len(tier))]
	return &chosen
}

// Distribute resolves and selects in one step.
func (d *Distributor) Distribute(ctx context.Context, category *domain.TicketCategory) (*Candidate, error) {
	tier, err := d.Resolve(ctx, category)
	if err != nil {
		return nil, err
	}
	return d.Select(tier), nil
}

// profileConflicts reports whether a technician's profile tag excludes them
// from a category. Only a tag that is set and different conflicts; absence
// of a tag never excludes.
func profileConflicts(technicianProfile, categoryProfile *string) bool {
	if technicianProfile == nil || *technicianProfile == "" {
		return false
	}
	if categoryProfile == nil {
		return true
	}
	return *technicianProfile != *categoryProfile
}

func toCandidate(technician domain.Technician) Candidate {
	return Candidate{
		ID:      technician.ID,
		Name:    technician.Name,
		Profile: technician.Profile,
	}
}
