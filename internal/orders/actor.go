package orders

import (
	"github.com/google/uuid"

	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	"github.com/gaslinkhq/gaslink-backend/pkg/outbox"
)

// Actor is whoever drives a transition: a customer, an agency operator, an
// admin, or the system itself.
type Actor struct {
	Role enums.ActorRole
	ID   *uuid.UUID
	Name string
}

// SystemActor attributes automated transitions.
func SystemActor() Actor {
	return Actor{Role: enums.ActorRoleSystem, Name: "system"}
}

// Ref converts the actor into the outbox envelope form.
func (a Actor) Ref() *outbox.ActorRef {
	ref := &outbox.ActorRef{Role: string(a.Role), Name: a.Name}
	if a.ID != nil {
		ref.ID = a.ID.String()
	}
	return ref
}

// Valid reports whether the actor carries a known role.
func (a Actor) Valid() bool {
	return a.Role.IsValid()
}
