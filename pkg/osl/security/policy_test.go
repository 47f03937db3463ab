package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsstack/airssys/pkg/osl/security"
)

func TestACLFirstMatchWins(t *testing.T) {
	acl := security.NewACL([]security.ACLEntry{
		{PrincipalPattern: "*", ResourcePattern: "fs:/secret/**", Permissions: []string{"*"}, Effect: security.Deny},
		{PrincipalPattern: "*", ResourcePattern: "fs:/**", Permissions: []string{"read"}, Effect: security.Allow},
	})

	v := acl.Evaluate(security.Request{Principal: "alice", Resource: "fs:/secret/key", Permission: "read"})
	assert.Equal(t, security.Deny, v.Decision)

	v = acl.Evaluate(security.Request{Principal: "alice", Resource: "fs:/public/key", Permission: "read"})
	assert.Equal(t, security.Allow, v.Decision)
}

func TestSetDenyWins(t *testing.T) {
	allowAll := stubPolicy{name: "allow-all", verdict: security.Verdict{Decision: security.Allow}}
	denyOne := stubPolicy{name: "deny-one", verdict: security.Verdict{Decision: security.Deny, Reason: "blocked"}}

	set := security.Set{Mode: security.Strict, Policies: []security.Policy{allowAll, denyOne}}
	v := set.Evaluate(security.Request{Principal: "alice", Resource: "fs:/a", Permission: "read"})
	assert.Equal(t, security.Deny, v.Decision)
}

func TestSetDefaultsByMode(t *testing.T) {
	none := stubPolicy{name: "none", verdict: security.Verdict{Decision: security.NotApplicable}}

	strict := security.Set{Mode: security.Strict, Policies: []security.Policy{none}}
	assert.Equal(t, security.Deny, strict.Evaluate(security.Request{}).Decision)

	permissive := security.Set{Mode: security.Permissive, Policies: []security.Policy{none}}
	assert.Equal(t, security.Allow, permissive.Evaluate(security.Request{}).Decision)

	trusted := security.Set{Mode: security.Trusted, Policies: []security.Policy{none}}
	assert.Equal(t, security.Allow, trusted.Evaluate(security.Request{}).Decision)
}

func TestRBACTransitiveInheritance(t *testing.T) {
	roles := map[string]security.Role{
		"viewer": {Name: "viewer", Permissions: []string{"read"}},
		"editor": {Name: "editor", Permissions: []string{"write"}, Inherits: []string{"viewer"}},
		"admin":  {Name: "admin", Permissions: []string{"delete"}, Inherits: []string{"editor"}},
	}
	rbac, err := security.NewRBAC(roles, map[string][]string{"bob": {"admin"}})
	require.NoError(t, err)

	v := rbac.Evaluate(security.Request{Principal: "bob", Permission: "read"})
	assert.Equal(t, security.Allow, v.Decision)

	v = rbac.Evaluate(security.Request{Principal: "bob", Permission: "nonexistent"})
	assert.Equal(t, security.NotApplicable, v.Decision)
}

func TestRBACDetectsCycle(t *testing.T) {
	roles := map[string]security.Role{
		"a": {Name: "a", Inherits: []string{"b"}},
		"b": {Name: "b", Inherits: []string{"a"}},
	}
	_, err := security.NewRBAC(roles, nil)
	require.Error(t, err)
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern, resource string
		want              bool
	}{
		{"*", "anything", true},
		{"fs:/tmp/*", "fs:/tmp/a", true},
		{"fs:/tmp/*", "fs:/tmp/a/b", false},
		{"fs:/tmp/**", "fs:/tmp/a/b/c", true},
		{"fs:/tmp/fil?", "fs:/tmp/file", true},
		{"fs:/tmp/fil?", "fs:/tmp/fileX", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, security.MatchGlob(c.pattern, c.resource), "%s vs %s", c.pattern, c.resource)
	}
}

type stubPolicy struct {
	name    string
	verdict security.Verdict
}

func (s stubPolicy) Name() string                            { return s.name }
func (s stubPolicy) Evaluate(security.Request) security.Verdict { return s.verdict }
