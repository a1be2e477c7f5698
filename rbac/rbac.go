// Package rbac evaluates role and permission requirements against the
// static role→permission table. The table is built once at startup,
// frozen, and never mutated afterwards; evaluation is pure and never
// returns an error — an unknown role simply resolves to no permissions.
package rbac

// Role is one of the fixed account roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Roles returns the fixed role enum in ascending capability order.
func Roles() []Role {
	return []Role{RoleUser, RoleOrganizer, RoleAdmin}
}

// Valid reports whether r is a member of the fixed role enum.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Permission is a fine-grained capability key.
type Permission string

const (
	PermReadEvents          Permission = "read:events"
	PermWriteEvents         Permission = "write:events"
	PermDeleteEvents        Permission = "delete:events"
	PermReadRegistrations   Permission = "read:registrations"
	PermWriteRegistrations  Permission = "write:registrations"
	PermManageRegistrations Permission = "manage:registrations"
	PermReadAttendees       Permission = "read:attendees"
	PermManageUsers         Permission = "manage:users"
	PermSessionsAdmin       Permission = "admin:sessions"
)

// Permissions returns every capability key, in registration order.
func Permissions() []Permission {
	return []Permission{
		PermReadEvents,
		PermWriteEvents,
		PermDeleteEvents,
		PermReadRegistrations,
		PermWriteRegistrations,
		PermManageRegistrations,
		PermReadAttendees,
		PermManageUsers,
		PermSessionsAdmin,
	}
}

// DefaultRolePermissions is the canonical role→permission table.
// Every role's set is a superset of the roles below it.
func DefaultRolePermissions() map[Role][]Permission {
	user := []Permission{
		PermReadEvents,
		PermReadRegistrations,
		PermWriteRegistrations,
	}
	organizer := append(append([]Permission{}, user...),
		PermWriteEvents,
		PermManageRegistrations,
		PermReadAttendees,
	)
	admin := append(append([]Permission{}, organizer...),
		PermDeleteEvents,
		PermManageUsers,
		PermSessionsAdmin,
	)
	return map[Role][]Permission{
		RoleUser:      user,
		RoleOrganizer: organizer,
		RoleAdmin:     admin,
	}
}

// Requirement is a declarative role/permission gate attached to a protected
// operation by route configuration. It is a value object, never persisted.
type Requirement struct {
	// Required marks the route as needing an authenticated caller at all.
	Required bool
	// Roles is satisfied when the caller holds any listed role.
	Roles []Role
	// Permissions is evaluated with any-of semantics unless RequireAll is set.
	Permissions []Permission
	RequireAll  bool
}

// Engine is a stateless evaluator over a frozen role→permission table.
type Engine struct {
	registry *Registry
	roles    map[Role]Mask64
}

// NewEngine builds an evaluator from an explicit role→permission table.
// The table is copied into frozen masks; later mutation of the argument
// has no effect on the engine.
func NewEngine(table map[Role][]Permission) (*Engine, error) {
	registry := NewRegistry()
	for _, perm := range Permissions() {
		if _, err := registry.Register(perm); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	roles := make(map[Role]Mask64, len(table))
	for role, perms := range table {
		var mask Mask64
		for _, perm := range perms {
			bit, ok := registry.Bit(perm)
			if !ok {
				return nil, &UnknownPermissionError{Permission: perm}
			}
			mask.Set(bit)
		}
		roles[role] = mask
	}

	return &Engine{registry: registry, roles: roles}, nil
}

// NewDefaultEngine builds an evaluator over DefaultRolePermissions.
// The default table is internally consistent, so construction cannot fail.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultRolePermissions())
	if err != nil {
		panic("rbac: default table invalid: " + err.Error())
	}
	return e
}

// UnknownPermissionError reports a table entry referencing an unregistered
// permission at construction time.
type UnknownPermissionError struct {
	Permission Permission
}

func (e *UnknownPermissionError) Error() string {
	return "rbac: unknown permission " + string(e.Permission)
}

// HasRole reports whether role equals any of the given roles.
func (e *Engine) HasRole(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// HasPermission reports whether the role's permission set contains perm.
func (e *Engine) HasPermission(role Role, perm Permission) bool {
	bit, ok := e.registry.Bit(perm)
	if !ok {
		return false
	}
	return e.roles[role].Has(bit)
}

// HasAllPermissions reports whether every perm is in the role's set.
// Vacuously true for an empty list.
func (e *Engine) HasAllPermissions(role Role, perms ...Permission) bool {
	for _, perm := range perms {
		if !e.HasPermission(role, perm) {
			return false
		}
	}
	return true
}

// HasAnyPermission reports whether at least one perm is in the role's set.
func (e *Engine) HasAnyPermission(role Role, perms ...Permission) bool {
	for _, perm := range perms {
		if e.HasPermission(role, perm) {
			return true
		}
	}
	return false
}

// PermissionsForRole returns the resolved permission names for a role, in
// registration order. Unknown roles resolve to an empty set.
func (e *Engine) PermissionsForRole(role Role) []Permission {
	mask := e.roles[role]
	var perms []Permission
	for bit := 0; bit < e.registry.Count(); bit++ {
		if !mask.Has(bit) {
			continue
		}
		if name, ok := e.registry.Name(bit); ok {
			perms = append(perms, name)
		}
	}
	return perms
}

// CanAccess evaluates the role condition AND the permission condition of a
// requirement. An absent condition is vacuously satisfied.
func (e *Engine) CanAccess(role Role, req Requirement) bool {
	if len(req.Roles) > 0 && !e.HasRole(role, req.Roles...) {
		return false
	}
	if len(req.Permissions) > 0 {
		if req.RequireAll {
			return e.HasAllPermissions(role, req.Permissions...)
		}
		return e.HasAnyPermission(role, req.Permissions...)
	}
	return true
}
