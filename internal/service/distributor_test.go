package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
)

// ── In-memory TechnicianRepository stub ──────────────────────────────────────

type stubTechnicianRepo struct {
	technicians map[string]*domain.Technician
	assignments map[string][]string // category ID -> technician IDs
	nextID      int
}

func newStubTechnicianRepo() *stubTechnicianRepo {
	return &stubTechnicianRepo{
		technicians: make(map[string]*domain.Technician),
		assignments: make(map[string][]string),
	}
}

func (r *stubTechnicianRepo) add(name string, profile, areaID *string) *domain.Technician {
	r.nextID++
	technician := &domain.Technician{
		ID:      fmt.Sprintf("tech-%d", r.nextID),
		DNI:     fmt.Sprintf("dni-%d", r.nextID),
		Name:    name,
		Email:   name + "@crub.example",
		Profile: profile,
		AreaID:  areaID,
	}
	r.technicians[technician.ID] = technician
	return technician
}

func (r *stubTechnicianRepo) assign(categoryID, technicianID string) {
	r.assignments[categoryID] = append(r.assignments[categoryID], technicianID)
}

func (r *stubTechnicianRepo) Create(_ context.Context, technician *domain.Technician) error {
	r.technicians[technician.ID] = technician
	return nil
}

func (r *stubTechnicianRepo) Update(_ context.Context, technician *domain.Technician) error {
	r.technicians[technician.ID] = technician
	return nil
}

func (r *stubTechnicianRepo) Delete(_ context.Context, id string) error {
	delete(r.technicians, id)
	return nil
}

func (r *stubTechnicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	technician, ok := r.technicians[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return technician, nil
}

func (r *stubTechnicianRepo) GetByEmail(_ context.Context, email string) (*domain.Technician, error) {
	for _, technician := range r.technicians {
		if technician.Email == email {
			return technician, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubTechnicianRepo) GetByDNI(_ context.Context, dni string) (*domain.Technician, error) {
	for _, technician := range r.technicians {
		if technician.DNI == dni {
			return technician, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubTechnicianRepo) GetByResetToken(_ context.Context, token string) (*domain.Technician, error) {
	for _, technician := range r.technicians {
		if technician.ResetToken != nil && *technician.ResetToken == token {
			return technician, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubTechnicianRepo) ListByArea(_ context.Context, areaID string) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, technician := range r.technicians {
		if technician.AreaID != nil && *technician.AreaID == areaID {
			result = append(result, *technician)
		}
	}
	return result, nil
}

func (r *stubTechnicianRepo) ListByProfile(_ context.Context, profile string) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, technician := range r.technicians {
		if technician.Profile != nil && *technician.Profile == profile {
			result = append(result, *technician)
		}
	}
	return result, nil
}

func (r *stubTechnicianRepo) ListByCategoryAssignment(_ context.Context, categoryID string) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, id := range r.assignments[categoryID] {
		if technician, ok := r.technicians[id]; ok {
			result = append(result, *technician)
		}
	}
	return result, nil
}

func (r *stubTechnicianRepo) List(_ context.Context) ([]domain.Technician, error) {
	var result []domain.Technician
	for _, technician := range r.technicians {
		result = append(result, *technician)
	}
	return result, nil
}

func (r *stubTechnicianRepo) CountByArea(_ context.Context, areaID string) (int, error) {
	count := 0
	for _, technician := range r.technicians {
		if technician.AreaID != nil && *technician.AreaID == areaID {
			count++
		}
	}
	return count, nil
}

var _ repository.TechnicianRepository = (*stubTechnicianRepo)(nil)

func strPtr(s string) *string { return &s }

func candidateIDs(tier []Candidate) []string {
	ids := make([]string, 0, len(tier))
	for _, candidate := range tier {
		ids = append(ids, candidate.ID)
	}
	return ids
}

// ── Tier resolution ──────────────────────────────────────────────────────────

func TestResolveExplicitAssignmentWinsOverAreaMembers(t *testing.T) {
	// Category C1 belongs to Area X. T1 is explicitly assigned and in Area
	// X, T2 is in Area X with no profile tag. Only T1 may be returned.
	repo := newStubTechnicianRepo()
	areaX := "area-x"
	t1 := repo.add("t1", nil, &areaX)
	repo.add("t2", nil, &areaX)

	category := &domain.TicketCategory{ID: "c1", AreaID: &areaX}
	repo.assign(category.ID, t1.ID)

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.Equal(t, []string{t1.ID}, candidateIDs(tier))
}

func TestResolveAssignedTechnicianOutsideAreaDoesNotCountAsTierOne(t *testing.T) {
	// An explicit assignment only counts while the technician belongs to
	// the category's area; otherwise the area tier takes over.
	repo := newStubTechnicianRepo()
	areaX := "area-x"
	areaY := "area-y"
	outsider := repo.add("outsider", nil, &areaY)
	inArea := repo.add("in-area", nil, &areaX)

	category := &domain.TicketCategory{ID: "c1", AreaID: &areaX}
	repo.assign(category.ID, outsider.ID)

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.Equal(t, []string{inArea.ID}, candidateIDs(tier))
}

func TestResolveAreaTierExcludesConflictingProfiles(t *testing.T) {
	// Category C2 in Area Y has legacy profile "soporte-tecnico". T3
	// matches, T4 ("redes") conflicts and is excluded.
	repo := newStubTechnicianRepo()
	areaY := "area-y"
	t3 := repo.add("t3", strPtr("soporte-tecnico"), &areaY)
	repo.add("t4", strPtr("redes"), &areaY)

	category := &domain.TicketCategory{ID: "c2", AreaID: &areaY, Profile: strPtr("soporte-tecnico")}

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.Equal(t, []string{t3.ID}, candidateIDs(tier))
}

func TestResolveAreaTierKeepsUntaggedTechnicians(t *testing.T) {
	// An unset profile tag never excludes a technician from their area.
	repo := newStubTechnicianRepo()
	areaY := "area-y"
	tagged := repo.add("tagged", strPtr("soporte-tecnico"), &areaY)
	untagged := repo.add("untagged", nil, &areaY)

	category := &domain.TicketCategory{ID: "c2", AreaID: &areaY, Profile: strPtr("soporte-tecnico")}

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{tagged.ID, untagged.ID}, candidateIDs(tier))
}

func TestResolveGlobalProfileFallback(t *testing.T) {
	// Category C3 has no area; technician T5 with matching profile lives in
	// an unrelated area and is still found by the global fallback.
	repo := newStubTechnicianRepo()
	elsewhere := "area-z"
	t5 := repo.add("t5", strPtr("redes"), &elsewhere)
	repo.add("other", strPtr("soporte-tecnico"), &elsewhere)

	category := &domain.TicketCategory{ID: "c3", Profile: strPtr("redes")}

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.Equal(t, []string{t5.ID}, candidateIDs(tier))
}

func TestResolveEmptyAreaFallsThroughToGlobalProfile(t *testing.T) {
	// A category with an area but zero eligible members there broadens to
	// the global profile match, even across areas.
	repo := newStubTechnicianRepo()
	areaX := "area-x"
	areaZ := "area-z"
	remote := repo.add("remote", strPtr("redes"), &areaZ)

	category := &domain.TicketCategory{ID: "c5", AreaID: &areaX, Profile: strPtr("redes")}

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.Equal(t, []string{remote.ID}, candidateIDs(tier))
}

func TestResolveNoCandidatesYieldsEmptyWithoutError(t *testing.T) {
	// Category C4: no area, legacy profile with zero matches anywhere.
	repo := newStubTechnicianRepo()
	repo.add("unrelated", strPtr("soporte-tecnico"), nil)

	category := &domain.TicketCategory{ID: "c4", Profile: strPtr("impresoras")}

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), category)
	require.NoError(t, err)
	assert.Empty(t, tier)
}

func TestResolveNoAreaNoProfileYieldsEmpty(t *testing.T) {
	repo := newStubTechnicianRepo()
	repo.add("anyone", nil, nil)

	d := NewDistributor(repo)
	tier, err := d.Resolve(context.Background(), &domain.TicketCategory{ID: "bare"})
	require.NoError(t, err)
	assert.Empty(t, tier)
}

// ── Selection ────────────────────────────────────────────────────────────────

func TestSelectEmptyTierYieldsNoAssignment(t *testing.T) {
	d := NewDistributor(newStubTechnicianRepo())
	assert.Nil(t, d.Select(nil))
	assert.Nil(t, d.Select([]Candidate{}))
}

func TestSelectUsesInjectedPick(t *testing.T) {
	d := NewDistributor(newStubTechnicianRepo())
	d.pick = func(n int) int { return n - 1 }

	tier := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	chosen := d.Select(tier)
	require.NotNil(t, chosen)
	assert.Equal(t, "c", chosen.ID)
}

func TestSelectReachesEveryMemberOverManyTrials(t *testing.T) {
	repo := newStubTechnicianRepo()
	d := NewDistributor(repo)

	tier := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	seen := make(map[string]int)
	for i := 0; i < 4000; i++ {
		chosen := d.Select(tier)
		require.NotNil(t, chosen)
		seen[chosen.ID]++
	}

	for _, candidate := range tier {
		assert.Greater(t, seen[candidate.ID], 0, "candidate %s never selected", candidate.ID)
	}
}

func TestDistributePrefersFirstNonEmptyTier(t *testing.T) {
	repo := newStubTechnicianRepo()
	areaX := "area-x"
	assigned := repo.add("assigned", nil, &areaX)
	repo.add("bystander", nil, &areaX)

	category := &domain.TicketCategory{ID: "c1", AreaID: &areaX}
	repo.assign(category.ID, assigned.ID)

	d := NewDistributor(repo)
	candidate, err := d.Distribute(context.Background(), category)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, assigned.ID, candidate.ID)
}

func TestProfileConflicts(t *testing.T) {
	assert.False(t, profileConflicts(nil, strPtr("redes")))
	assert.False(t, profileConflicts(strPtr(""), strPtr("redes")))
	assert.False(t, profileConflicts(strPtr("redes"), strPtr("redes")))
	assert.True(t, profileConflicts(strPtr("soporte-tecnico"), strPtr("redes")))
	assert.True(t, profileConflicts(strPtr("redes"), nil))
}
