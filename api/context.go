package api

import (
	"context"
	"errors"

	"github.com/Brosquire/nodemaster/models"
)

type keyType string

const userKey keyType = "user"

// ctxWithUser stashes the authenticated principal on the request context.
func ctxWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFromCtx retrieves the authenticated principal from the context.
func userFromCtx(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user in context")
	}
	return user, nil
}
