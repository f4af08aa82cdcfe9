package service

import (
	"context"
	"fmt"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
)

// ChainResolver orders an organization's approval steps and decides whether
// a person is an authorized approver for a step.
type ChainResolver struct {
	steps        port.ApprovalStepRepository
	supportEmail string
	logger       Logger
}

// NewChainResolver creates a new ChainResolver. supportEmail is included in
// the operator-facing message when no chain is configured; it may be empty.
func NewChainResolver(steps port.ApprovalStepRepository, supportEmail string, logger Logger) *ChainResolver {
	return &ChainResolver{
		steps:        steps,
		supportEmail: supportEmail,
		logger:       logger,
	}
}

// ResolveChain returns the organization's approval steps ordered by their
// next-step links, head first. Returns ErrNoApprovalChain when the
// organization has no steps or the links do not form a single chain.
func (r *ChainResolver) ResolveChain(ctx context.Context, orgUUID string) ([]*entity.ApprovalStep, error) {
	steps, err := r.steps.GetStepsForOrg(ctx, orgUUID)
	if err != nil {
		return nil, fmt.Errorf("load approval steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, r.noChainError(orgUUID)
	}

	byUUID := make(map[string]*entity.ApprovalStep, len(steps))
	referenced := make(map[string]bool, len(steps))
	for _, s := range steps {
		byUUID[s.UUID] = s
		if s.NextStepUUID != nil {
			referenced[*s.NextStepUUID] = true
		}
	}

	// The head is the one step no other step points at.
	var head *entity.ApprovalStep
	for _, s := range steps {
		if !referenced[s.UUID] {
			if head != nil {
				r.logger.Error("Approval chain has multiple heads",
					"org_uuid", orgUUID, "step_uuid", s.UUID, "other_head", head.UUID)
				return nil, r.noChainError(orgUUID)
			}
			head = s
		}
	}
	if head == nil {
		// Every step is referenced: the links form a cycle.
		r.logger.Error("Approval chain is cyclic", "org_uuid", orgUUID)
		return nil, r.noChainError(orgUUID)
	}

	ordered := make([]*entity.ApprovalStep, 0, len(steps))
	for s := head; s != nil; {
		ordered = append(ordered, s)
		if len(ordered) > len(steps) {
			r.logger.Error("Approval chain traversal exceeded step count", "org_uuid", orgUUID)
			return nil, r.noChainError(orgUUID)
		}
		if s.NextStepUUID == nil {
			break
		}
		next, ok := byUUID[*s.NextStepUUID]
		if !ok {
			r.logger.Error("Approval step links outside the organization",
				"org_uuid", orgUUID, "step_uuid", s.UUID, "next_step_uuid", *s.NextStepUUID)
			return nil, r.noChainError(orgUUID)
		}
		s = next
	}
	if len(ordered) != len(steps) {
		r.logger.Error("Approval chain does not include every step",
			"org_uuid", orgUUID, "ordered", len(ordered), "total", len(steps))
		return nil, r.noChainError(orgUUID)
	}

	return ordered, nil
}

// CanApprove returns true iff the person currently holds one of the approver
// positions configured for the step. Vacant positions never match.
func (r *ChainResolver) CanApprove(ctx context.Context, personUUID, stepUUID string) (bool, error) {
	positions, err := r.steps.GetApprovers(ctx, stepUUID)
	if err != nil {
		return false, fmt.Errorf("load approvers: %w", err)
	}
	for _, p := range positions {
		if p.CurrentPersonUUID != nil && *p.CurrentPersonUUID == personUUID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ChainResolver) noChainError(orgUUID string) error {
	msg := "the responsible organization has no report approval chain; please contact the support team"
	if r.supportEmail != "" {
		msg = fmt.Sprintf("%s at %s", msg, r.supportEmail)
	}
	return fmt.Errorf("%w: org %s: %s", ErrNoApprovalChain, orgUUID, msg)
}
