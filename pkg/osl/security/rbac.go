package security

import "fmt"

// Role is a named bundle of permissions that may inherit from other
// roles.
type Role struct {
	Name        string
	Permissions []string
	Inherits    []string
}

// RBAC resolves principals to roles to permission sets, with role
// inheritance computed as a transitive closure once at construction.
type RBAC struct {
	roles          map[string]Role
	principalRoles map[string][]string
	closure        map[string][]string // role -> all permissions, inherited included
}

// NewRBAC builds an RBAC policy from role declarations and a
// principal→roles assignment map. It returns an error if the role graph
// contains a cycle; a cyclic declaration is a startup error, never a
// runtime one.
func NewRBAC(roles map[string]Role, principalRoles map[string][]string) (*RBAC, error) {
	r := &RBAC{
		roles:          roles,
		principalRoles: principalRoles,
		closure:        make(map[string][]string, len(roles)),
	}
	for name := range roles {
		perms, err := resolvePermissions(roles, name, map[string]bool{})
		if err != nil {
			return nil, err
		}
		r.closure[name] = perms
	}
	return r, nil
}

func resolvePermissions(roles map[string]Role, name string, visiting map[string]bool) ([]string, error) {
	if visiting[name] {
		return nil, fmt.Errorf("security: cycle detected in role inheritance at %q", name)
	}
	role, ok := roles[name]
	if !ok {
		return nil, fmt.Errorf("security: unknown role %q", name)
	}
	visiting[name] = true

	perms := append([]string(nil), role.Permissions...)
	for _, parent := range role.Inherits {
		parentPerms, err := resolvePermissions(roles, parent, visiting)
		if err != nil {
			return nil, err
		}
		perms = append(perms, parentPerms...)
	}
	delete(visiting, name)
	return perms, nil
}

func (r *RBAC) Name() string { return "rbac" }

// Evaluate resolves req.Principal's role set to a permission set and
// matches req.Permission against it with ACL's wildcard semantics.
// RBAC never denies explicitly: absence of a grant is NotApplicable,
// letting other policies or the Set's default decide.
func (r *RBAC) Evaluate(req Request) Verdict {
	roleNames, ok := r.principalRoles[req.Principal]
	if !ok {
		return Verdict{Decision: NotApplicable}
	}
	for _, role := range roleNames {
		perms, ok := r.closure[role]
		if !ok {
			continue
		}
		if MatchPermission(perms, req.Permission) {
			return Verdict{Decision: Allow, Reason: fmt.Sprintf("role %q grants %s", role, req.Permission)}
		}
	}
	return Verdict{Decision: NotApplicable}
}
