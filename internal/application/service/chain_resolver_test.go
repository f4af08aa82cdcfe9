package service

import (
	"context"
	"testing"

	"github.com/advisornet/reportd/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chainSteps(steps ...*entity.ApprovalStep) *mockStepRepo {
	return &mockStepRepo{
		getStepsForOrgFunc: func(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error) {
			return steps, nil
		},
	}
}

func newResolver(steps *mockStepRepo) *ChainResolver {
	return NewChainResolver(steps, "support@example.com", &mockLogger{})
}

func TestResolveChain_OrdersByNextStepLinks(t *testing.T) {
	// Storage order: c, a, b. Chain order: a -> b -> c.
	a := &entity.ApprovalStep{UUID: "a", NextStepUUID: strPtr("b")}
	b := &entity.ApprovalStep{UUID: "b", NextStepUUID: strPtr("c")}
	c := &entity.ApprovalStep{UUID: "c"}

	ordered, err := newResolver(chainSteps(c, a, b)).ResolveChain(context.Background(), "org-1")
	require.NoError(t, err)

	require.Len(t, ordered, 3)
	assert.Equal(t, "a", ordered[0].UUID)
	assert.Equal(t, "b", ordered[1].UUID)
	assert.Equal(t, "c", ordered[2].UUID)
}

func TestResolveChain_SingleStep(t *testing.T) {
	only := &entity.ApprovalStep{UUID: "only"}

	ordered, err := newResolver(chainSteps(only)).ResolveChain(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "only", ordered[0].UUID)
}

func TestResolveChain_NoSteps(t *testing.T) {
	_, err := newResolver(chainSteps()).ResolveChain(context.Background(), "org-1")
	assert.ErrorIs(t, err, ErrNoApprovalChain)
	assert.Contains(t, err.Error(), "support@example.com")
}

func TestResolveChain_Cycle(t *testing.T) {
	a := &entity.ApprovalStep{UUID: "a", NextStepUUID: strPtr("b")}
	b := &entity.ApprovalStep{UUID: "b", NextStepUUID: strPtr("a")}

	_, err := newResolver(chainSteps(a, b)).ResolveChain(context.Background(), "org-1")
	assert.ErrorIs(t, err, ErrNoApprovalChain)
}

func TestResolveChain_MultipleHeads(t *testing.T) {
	a := &entity.ApprovalStep{UUID: "a", NextStepUUID: strPtr("c")}
	b := &entity.ApprovalStep{UUID: "b", NextStepUUID: strPtr("c")}
	c := &entity.ApprovalStep{UUID: "c"}

	_, err := newResolver(chainSteps(a, b, c)).ResolveChain(context.Background(), "org-1")
	assert.ErrorIs(t, err, ErrNoApprovalChain)
}

func TestResolveChain_LinkOutsideOrganization(t *testing.T) {
	a := &entity.ApprovalStep{UUID: "a", NextStepUUID: strPtr("elsewhere")}

	_, err := newResolver(chainSteps(a)).ResolveChain(context.Background(), "org-1")
	assert.ErrorIs(t, err, ErrNoApprovalChain)
}

func TestCanApprove(t *testing.T) {
	steps := &mockStepRepo{
		getApproversFunc: func(ctx context.Context, stepUUID string) ([]entity.Position, error) {
			return []entity.Position{
				{UUID: "pos-vacant"}, // vacant position never matches
				{UUID: "pos-held", CurrentPersonUUID: strPtr("person-1")},
			}, nil
		},
	}
	r := newResolver(steps)

	ok, err := r.CanApprove(context.Background(), "person-1", "step-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CanApprove(context.Background(), "person-2", "step-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanApprove_NoPositions(t *testing.T) {
	r := newResolver(&mockStepRepo{})

	ok, err := r.CanApprove(context.Background(), "person-1", "step-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
