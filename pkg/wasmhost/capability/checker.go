package capability

import (
	"time"

	"github.com/airsstack/airssys/pkg/osl"
)

// ComponentCapabilities resolves a component id to its granted Set,
// decoupling the checker from wasmhost's concrete Registry type.
type ComponentCapabilities interface {
	Capabilities(componentID string) (Set, bool)
}

// Checker enforces per-call capability checks on the host-function hot
// path, emitting a best-effort audit record through Auditor for every
// decision.
type Checker struct {
	components ComponentCapabilities
	auditor    osl.Auditor
}

// NewChecker builds a Checker over components, auditing decisions
// through auditor (osl.NopAuditor{} if nil is passed by the caller).
func NewChecker(components ComponentCapabilities, auditor osl.Auditor) *Checker {
	if auditor == nil {
		auditor = osl.NopAuditor{}
	}
	return &Checker{components: components, auditor: auditor}
}

// Check decides whether componentID may exercise permission on
// resource: fast-path deny on an empty (or unknown) capability set,
// otherwise pattern-match the matching category's grants, first match
// wins. Audit emission failures are swallowed; logging never alters
// the decision.
func (c *Checker) Check(componentID string, category Category, resource, permission string) bool {
	set, ok := c.components.Capabilities(componentID)
	if !ok || set.IsEmpty() {
		c.audit(componentID, resource, permission, false)
		return false
	}

	allowed := set.Check(category, resource, permission)
	c.audit(componentID, resource, permission, allowed)
	return allowed
}

func (c *Checker) audit(componentID, resource, permission string, allowed bool) {
	decision := "Deny"
	eventType := osl.EventAccessDenied
	if allowed {
		decision = "Allow"
		eventType = osl.EventAccessGranted
	}
	_ = c.auditor.Record(osl.AuditRecord{
		Timestamp:     time.Now().UTC(),
		EventType:     eventType,
		Principal:     componentID,
		OperationID:   "capability.check",
		Resource:      resource,
		Permission:    permission,
		Decision:      decision,
		PolicyApplied: "capability_set",
	})
}
