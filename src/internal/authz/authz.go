// Package authz holds the single role-gating table for lifecycle actions.
// Every view asks this package; the mapping is never duplicated per view.
package authz

// Action is a user-facing lifecycle action subject to role gating.
type Action string

const (
	ActionCreate               Action = "create"
	ActionUpdate               Action = "update"
	ActionDelete               Action = "delete"
	ActionViewRegistrants      Action = "viewRegistrants"
	ActionRegister             Action = "register"
	ActionCancel               Action = "cancel"
	ActionViewOwnRegistrations Action = "viewOwnRegistrations"
)

const (
	RoleAdmin      = "Admin"
	RolePublicUser = "Public User"
)

var requiredRoles = map[Action][]string{
	ActionCreate:               {RoleAdmin},
	ActionUpdate:               {RoleAdmin},
	ActionDelete:               {RoleAdmin},
	ActionViewRegistrants:      {RoleAdmin},
	ActionRegister:             {RolePublicUser},
	ActionCancel:               {RolePublicUser},
	ActionViewOwnRegistrations: {RolePublicUser},
}

// CanPerform reports whether any of the viewer's roles satisfies the
// action's requirement. Unknown actions are denied.
func CanPerform(action Action, roles []string) bool {
	required, ok := requiredRoles[action]
	if !ok {
		return false
	}
	for _, need := range required {
		for _, have := range roles {
			if have == need {
				return true
			}
		}
	}
	return false
}

// PermittedActions returns every action the role set allows, for attaching
// to view models.
func PermittedActions(roles []string) []Action {
	ordered := []Action{
		ActionCreate, ActionUpdate, ActionDelete, ActionViewRegistrants,
		ActionRegister, ActionCancel, ActionViewOwnRegistrations,
	}
	var allowed []Action
	for _, a := range ordered {
		if CanPerform(a, roles) {
			allowed = append(allowed, a)
		}
	}
	return allowed
}
