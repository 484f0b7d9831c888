package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"attendance-backend/internal/models"
	"attendance-backend/internal/repository"
)

// PolicyResolver looks up the reminder policy for a user/course pair.
// Priority is fixed: active user scope beats course scope beats global; the
// built-in default applies when nothing matches.
type PolicyResolver struct {
	policies repository.PolicyStore
}

func NewPolicyResolver(policies repository.PolicyStore) *PolicyResolver {
	return &PolicyResolver{policies: policies}
}

func (r *PolicyResolver) Resolve(ctx context.Context, tenantID string, userID, courseID uuid.UUID) (*models.NotificationPolicy, error) {
	lookups := []struct {
		scope  string
		target *uuid.UUID
	}{
		{models.PolicyScopeUser, &userID},
		{models.PolicyScopeCourse, &courseID},
		{models.PolicyScopeGlobal, nil},
	}

	for _, l := range lookups {
		policy, err := r.policies.FindActive(ctx, tenantID, l.scope, l.target)
		if err == nil {
			return policy, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	return models.DefaultNotificationPolicy(tenantID), nil
}
