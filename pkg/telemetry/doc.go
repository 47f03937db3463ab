// Package telemetry provides a minimal OpenTelemetry tracing setup shared
// by the osl, rt and wasmhost packages.
//
// A process calls Init once at startup to obtain a Tracer and a shutdown
// func; every middleware, actor and supervisor in this module accepts that
// Tracer (or falls back to a no-op one) rather than reaching for a global.
package telemetry
