package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanPerform(t *testing.T) {
	public := []string{RolePublicUser}
	admin := []string{RoleAdmin}
	both := []string{RoleAdmin, RolePublicUser}

	tests := []struct {
		name   string
		action Action
		roles  []string
		want   bool
	}{
		{"public user cannot delete", ActionDelete, public, false},
		{"public user can register", ActionRegister, public, true},
		{"public user can cancel", ActionCancel, public, true},
		{"public user can view own registrations", ActionViewOwnRegistrations, public, true},
		{"public user cannot create", ActionCreate, public, false},
		{"admin can create", ActionCreate, admin, true},
		{"admin can update", ActionUpdate, admin, true},
		{"admin can view registrants", ActionViewRegistrants, admin, true},
		{"admin cannot register", ActionRegister, admin, false},
		{"combined roles can do both", ActionDelete, both, true},
		{"combined roles can register", ActionRegister, both, true},
		{"empty role set denies everything", ActionRegister, nil, false},
		{"unrelated role denies", ActionRegister, []string{"Moderator"}, false},
		{"unknown action denies", Action("publish"), both, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.action, tt.roles))
		})
	}
}

func TestPermittedActions(t *testing.T) {
	assert.ElementsMatch(t,
		[]Action{ActionRegister, ActionCancel, ActionViewOwnRegistrations},
		PermittedActions([]string{RolePublicUser}))

	assert.ElementsMatch(t,
		[]Action{ActionCreate, ActionUpdate, ActionDelete, ActionViewRegistrants},
		PermittedActions([]string{RoleAdmin}))

	assert.Empty(t, PermittedActions(nil))
}
