package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gaslinkhq/gaslink-backend/internal/orders"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxActorRole contextKey = "actor_role"
	ctxActorName contextKey = "actor_name"
	ctxAgencyID  contextKey = "agency_id"
)

// ActorFromContext rebuilds the authenticated actor seeded by Auth. The
// zero Actor is returned for unauthenticated contexts.
func ActorFromContext(ctx context.Context) orders.Actor {
	if ctx == nil {
		return orders.Actor{}
	}

	actor := orders.Actor{}
	if v, ok := ctx.Value(ctxActorRole).(string); ok {
		actor.Role = enums.ActorRole(v)
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			actor.ID = &id
		}
	}
	if v, ok := ctx.Value(ctxActorName).(string); ok {
		actor.Name = v
	}
	return actor
}

// AgencyIDFromContext returns the agency bound to the token, if any.
func AgencyIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxAgencyID).(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return &id
		}
	}
	return nil
}

// WithActor injects an actor into the context; used by tests and tooling.
func WithActor(ctx context.Context, actor orders.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorRole, string(actor.Role))
	ctx = context.WithValue(ctx, ctxActorName, actor.Name)
	if actor.ID != nil {
		ctx = context.WithValue(ctx, ctxActorID, actor.ID.String())
	}
	return ctx
}
