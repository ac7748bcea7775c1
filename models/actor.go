package models

import "fmt"

// ActorRole identifies what kind of principal triggered an operation
type ActorRole string

const (
	ActorAdmin  ActorRole = "admin"
	ActorTenant ActorRole = "tenant"
	ActorSystem ActorRole = "system"
)

// Actor is the identity handed to the billing core by the auth layer.
// It is trusted as-is and recorded on every mutation.
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
}

// SystemActor returns the actor used for gateway-driven and scheduled changes
func SystemActor(name string) Actor {
	return Actor{ID: name, Role: ActorSystem}
}

func (a Actor) IsAdmin() bool {
	return a.Role == ActorAdmin
}

func (a Actor) IsZero() bool {
	return a.ID == ""
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Role, a.ID)
}
