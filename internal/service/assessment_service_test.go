package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store/memstore"
)

func newAssessmentFixture(t *testing.T) (*AssessmentService, *memstore.Store, int64) {
	t.Helper()

	st := memstore.New()
	org, err := st.CreateOrganization(t.Context(), "Globex Recruiting")
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	return NewAssessmentService(st, nil, zerolog.Nop()), st, org.ID
}

// An explicit threshold of 0 (every submission passes) is a valid
// configuration and must survive creation unchanged.
func TestCreateTestKeepsExplicitZeroPassingScore(t *testing.T) {
	svc, st, orgID := newAssessmentFixture(t)
	ctx := t.Context()

	zero := 0
	created, err := svc.CreateTest(ctx, orgID, 1, model.CreateTestRequest{
		Name:         "Practice Round",
		PassingScore: &zero,
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	if created.PassingScore != 0 {
		t.Fatalf("created PassingScore = %d, want 0", created.PassingScore)
	}

	stored, err := st.Test(ctx, orgID, created.ID)
	if err != nil {
		t.Fatalf("reload test: %v", err)
	}
	if stored.PassingScore != 0 {
		t.Fatalf("stored PassingScore = %d, want 0", stored.PassingScore)
	}
}

func TestCreateTestDefaultsPassingScoreWhenOmitted(t *testing.T) {
	svc, st, orgID := newAssessmentFixture(t)
	ctx := t.Context()

	created, err := svc.CreateTest(ctx, orgID, 1, model.CreateTestRequest{Name: "Backend Screen"})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	if created.PassingScore != model.DefaultPassingScore {
		t.Fatalf("created PassingScore = %d, want %d", created.PassingScore, model.DefaultPassingScore)
	}
	if !created.IsActive {
		t.Fatal("created test should be active")
	}

	stored, err := st.Test(ctx, orgID, created.ID)
	if err != nil {
		t.Fatalf("reload test: %v", err)
	}
	if stored.PassingScore != model.DefaultPassingScore {
		t.Fatalf("stored PassingScore = %d, want %d", stored.PassingScore, model.DefaultPassingScore)
	}
}

// A zero threshold set by a later update must also stick; the update
// path patches only supplied fields.
func TestUpdateTestCanLowerPassingScoreToZero(t *testing.T) {
	svc, _, orgID := newAssessmentFixture(t)
	ctx := t.Context()

	created, err := svc.CreateTest(ctx, orgID, 1, model.CreateTestRequest{Name: "Screen"})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}

	zero := 0
	updated, err := svc.UpdateTest(ctx, orgID, created.ID, model.UpdateTestRequest{PassingScore: &zero})
	if err != nil {
		t.Fatalf("update test: %v", err)
	}
	if updated.PassingScore != 0 {
		t.Fatalf("updated PassingScore = %d, want 0", updated.PassingScore)
	}
	if updated.Name != "Screen" {
		t.Fatalf("unrelated field changed: Name = %q", updated.Name)
	}
}
