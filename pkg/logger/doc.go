// Package logger provides the structured, leveled logging interface shared
// by pkg/osl, pkg/rt and pkg/wasmhost.
//
// Every middleware, actor, supervisor and audit sink in this module takes a
// Logger rather than reaching for the standard library's log package
// directly, so a caller embedding this module can swap in their own
// implementation (a JSON-line emitter, a log/slog adapter, a no-op logger
// for tests) without touching call sites.
//
// # Logger Interface
//
//	type Logger interface {
//	    Debug(msg string, fields ...interface{})
//	    Info(msg string, fields ...interface{})
//	    Warn(msg string, fields ...interface{})
//	    Error(msg string, fields ...interface{})
//	    SetLevel(level string)
//	    WithField(key string, value interface{}) Logger
//	    WithFields(fields map[string]interface{}) Logger
//	    With(fields ...Field) Logger
//	    Component(name string) Logger
//	}
//
// # Component tagging
//
// Component is a thin wrapper over With that every long-lived subsystem in
// this module calls once at construction time, so its log lines carry a
// stable "component" field without every call site repeating it:
//
//	log := logger.NewDefaultLogger().Component("supervisor")
//	log.Info("child restarted", "child_id", id)
//
// # Log Levels
//
// Supported log levels in order of severity: DEBUG, INFO, WARN, ERROR.
package logger
