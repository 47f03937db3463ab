// Package audit provides the four AuditLog implementations named in the
// pipeline's audit contract: console, file, ring buffer and broadcast.
package audit

import (
	"fmt"
	"sync"

	"github.com/airsstack/airssys/pkg/logger"
	"github.com/airsstack/airssys/pkg/osl"
)

// Console writes one line per record to an injected logger. Console and
// ring-buffer variants favor atomics/locks over heavier synchronization
// since their hot path never does I/O beyond an in-process write.
type Console struct {
	mu  sync.Mutex
	log logger.Logger
}

// NewConsole builds a Console auditor writing through log.
func NewConsole(log logger.Logger) *Console {
	return &Console{log: log}
}

func (c *Console) Record(rec osl.AuditRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := []interface{}{
		"event_type", string(rec.EventType),
		"principal", rec.Principal,
		"operation_id", rec.OperationID,
		"resource", rec.Resource,
		"permission", rec.Permission,
		"decision", rec.Decision,
		"policy_applied", rec.PolicyApplied,
	}
	if rec.Reason != "" {
		fields = append(fields, "reason", rec.Reason)
	}

	msg := fmt.Sprintf("audit: %s", rec.Decision)
	if rec.EventType == osl.EventAccessDenied || rec.EventType == osl.EventError {
		c.log.Warn(msg, fields...)
	} else {
		c.log.Info(msg, fields...)
	}
	return nil
}

func (c *Console) Flush() error { return nil }
