package resolver

import (
	"context"
	"errors"
	"fmt"

	"blog-service/internal/auth"
	"blog-service/internal/logger"
	"blog-service/internal/user"
)

// StoreResolver resolves identities through a user.Store.
type StoreResolver struct {
	users user.Store
}

func NewStoreResolver(users user.Store) *StoreResolver {
	return &StoreResolver{users: users}
}

func (r *StoreResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (*user.User, error) {

	if identity == nil {
		return nil, errors.New("identity is nil")
	}
	if identity.Provider == "" || identity.ProviderUserID == "" {
		return nil, errors.New("identity has no provider subject")
	}

	// 1. Try identity lookup (provider + provider_user_id)
	u, err := r.users.FindByFederatedID(ctx, identity.Provider, identity.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("find by federated id: %w", err)
	}
	if u != nil {
		return u, nil
	}

	// 2. Try email-based linking (existing user, new provider).
	// Only a provider-verified email may claim an existing account.
	if identity.EmailVerified {
		u, err = r.users.FindByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			if err := r.users.LinkFederatedID(ctx, u.ID, identity.Provider, identity.ProviderUserID); err != nil {
				return nil, fmt.Errorf("link federated id: %w", err)
			}
			logger.Info("federated identity linked", map[string]any{
				"user_id":  u.ID,
				"provider": identity.Provider,
			})
			return u, nil
		case !errors.Is(err, user.ErrNotFound):
			return nil, fmt.Errorf("find by email: %w", err)
		}
	}

	// 3. Create new user with identity mapping
	u, err = r.users.CreateFederated(ctx, user.FederatedProfile{
		Provider:  identity.Provider,
		Subject:   identity.ProviderUserID,
		Email:     identity.Email,
		FirstName: identity.GivenName,
		LastName:  identity.FamilyName,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		// A concurrent request may have bound this subject in the meantime.
		u, err = r.users.FindByFederatedID(ctx, identity.Provider, identity.ProviderUserID)
		if err == nil && u == nil {
			return nil, user.ErrEmailTaken
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create federated user: %w", err)
	}

	logger.Info("federated user created", map[string]any{
		"user_id":  u.ID,
		"provider": identity.Provider,
	})
	return u, nil
}

var _ Resolver = (*StoreResolver)(nil)
