package rbac

import (
	"errors"
	"testing"
)

func TestDefaultTableIsSupersetChain(t *testing.T) {
	e := NewDefaultEngine()

	userPerms := e.PermissionsForRole(RoleUser)
	organizerPerms := e.PermissionsForRole(RoleOrganizer)
	adminPerms := e.PermissionsForRole(RoleAdmin)

	if len(userPerms) >= len(organizerPerms) || len(organizerPerms) >= len(adminPerms) {
		t.Fatalf("expected strictly growing sets, got %d/%d/%d",
			len(userPerms), len(organizerPerms), len(adminPerms))
	}

	for _, perm := range userPerms {
		if !e.HasPermission(RoleOrganizer, perm) {
			t.Fatalf("organizer missing user permission %q", perm)
		}
	}
	for _, perm := range organizerPerms {
		if !e.HasPermission(RoleAdmin, perm) {
			t.Fatalf("admin missing organizer permission %q", perm)
		}
	}
}

func TestHasPermission(t *testing.T) {
	e := NewDefaultEngine()

	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleUser, PermReadEvents, true},
		{RoleUser, PermWriteEvents, false},
		{RoleUser, PermDeleteEvents, false},
		{RoleOrganizer, PermWriteEvents, true},
		{RoleOrganizer, PermDeleteEvents, false},
		{RoleOrganizer, PermManageUsers, false},
		{RoleAdmin, PermDeleteEvents, true},
		{RoleAdmin, PermSessionsAdmin, true},
		{Role("ghost"), PermReadEvents, false},
	}

	for _, tc := range cases {
		if got := e.HasPermission(tc.role, tc.perm); got != tc.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestHasPermissionUnknownPermission(t *testing.T) {
	e := NewDefaultEngine()
	if e.HasPermission(RoleAdmin, Permission("launch:rockets")) {
		t.Fatal("unknown permission must never be granted")
	}
}

func TestHasAllPermissionsVacuouslyTrue(t *testing.T) {
	e := NewDefaultEngine()
	if !e.HasAllPermissions(RoleUser) {
		t.Fatal("empty permission list must be satisfied")
	}
}

func TestHasAnyPermission(t *testing.T) {
	e := NewDefaultEngine()
	if !e.HasAnyPermission(RoleUser, PermManageUsers, PermReadEvents) {
		t.Fatal("expected any-of match on read:events")
	}
	if e.HasAnyPermission(RoleUser, PermManageUsers, PermDeleteEvents) {
		t.Fatal("expected no match for user on admin permissions")
	}
}

func TestHasRole(t *testing.T) {
	e := NewDefaultEngine()
	if !e.HasRole(RoleOrganizer, RoleOrganizer, RoleAdmin) {
		t.Fatal("expected organizer to match allowed list")
	}
	if e.HasRole(RoleUser, RoleOrganizer, RoleAdmin) {
		t.Fatal("expected user to fail allowed list")
	}
}

func TestCanAccess(t *testing.T) {
	e := NewDefaultEngine()

	cases := []struct {
		name string
		role Role
		req  Requirement
		want bool
	}{
		{"zero requirement allows any role", RoleUser, Requirement{Required: true}, true},
		{"role gate passes", RoleAdmin, Requirement{Roles: []Role{RoleAdmin}}, true},
		{"role gate fails", RoleUser, Requirement{Roles: []Role{RoleAdmin}}, false},
		{"any-of permissions", RoleUser,
			Requirement{Permissions: []Permission{PermManageUsers, PermReadEvents}}, true},
		{"all-of permissions fails", RoleUser,
			Requirement{Permissions: []Permission{PermManageUsers, PermReadEvents}, RequireAll: true}, false},
		{"all-of permissions passes", RoleAdmin,
			Requirement{Permissions: []Permission{PermManageUsers, PermReadEvents}, RequireAll: true}, true},
		{"role and permission both required", RoleOrganizer,
			Requirement{Roles: []Role{RoleOrganizer}, Permissions: []Permission{PermDeleteEvents}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.CanAccess(tc.role, tc.req); got != tc.want {
				t.Fatalf("CanAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewEngineRejectsUnknownPermission(t *testing.T) {
	_, err := NewEngine(map[Role][]Permission{
		RoleUser: {Permission("no:such")},
	})
	var unknown *UnknownPermissionError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownPermissionError, got %v", err)
	}
	if unknown.Permission != "no:such" {
		t.Fatalf("unexpected permission in error: %q", unknown.Permission)
	}
}

func TestCustomTable(t *testing.T) {
	e, err := NewEngine(map[Role][]Permission{
		Role("auditor"): {PermReadEvents, PermReadRegistrations},
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if !e.HasPermission(Role("auditor"), PermReadEvents) {
		t.Fatal("expected custom role grant")
	}
	if e.HasPermission(Role("auditor"), PermWriteEvents) {
		t.Fatal("unexpected grant outside custom table")
	}
}
