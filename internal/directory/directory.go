// Package directory provides a read-only view over the agent roster.
// Agent provisioning itself happens outside this service; this module only
// answers "who can be assigned work right now".
package directory

import (
	"time"

	"github.com/google/uuid"
)

// Agent roles.
const (
	RoleSalesAgent = "sales_agent"
	RoleAdmin      = "admin"
)

// Agent is a user that can participate in lead assignment and calling.
type Agent struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
