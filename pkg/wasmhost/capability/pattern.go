package capability

import "github.com/airsstack/airssys/pkg/osl/security"

// MatchGlob matches resource against pattern using the same glob rules
// as the OSL ACL (`*` single segment, `**` recursive, `?` single
// character, `/`-delimited segments): capability checks and ACL checks
// share one pattern dialect.
func MatchGlob(pattern, resource string) bool {
	return security.MatchGlob(pattern, resource)
}

// MatchPermission matches a requested permission against a list of
// granted ones, with "*" granting any permission.
func MatchPermission(granted []string, requested string) bool {
	return security.MatchPermission(granted, requested)
}
