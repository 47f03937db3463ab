// Package config loads the typed configuration consumed by pkg/osl,
// pkg/rt and pkg/wasmhost: security policy sets, resource limits,
// supervisor backoff parameters and audit sink selection.
//
// Configuration follows a three-layer priority, lowest to highest:
//  1. Default values
//  2. YAML file contents
//  3. Environment variable overrides (AIRSSYS_...), applied last so an
//     operator can override a shipped YAML file without editing it
//
// Example usage:
//
//	cfg, err := config.Load("airssys.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document for an AirsSys host process.
type Config struct {
	Security   SecurityConfig   `yaml:"security"`
	Audit      AuditConfig      `yaml:"audit"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Resources  ResourceLimits   `yaml:"resources"`
}

// SecurityMode controls the default decision when no policy matches.
type SecurityMode string

const (
	ModeStrict      SecurityMode = "strict"
	ModePermissive  SecurityMode = "permissive"
	ModeDevelopment SecurityMode = "development"
)

// SecurityConfig configures the ACL and RBAC policy sets evaluated by
// pkg/osl's security middleware.
type SecurityConfig struct {
	Mode SecurityMode    `yaml:"mode"`
	ACL  []ACLEntry      `yaml:"acl"`
	RBAC RBACConfig      `yaml:"rbac"`
}

// ACLEntry is one ordered ACL rule: (principal pattern, resource
// pattern, permissions, allow|deny).
type ACLEntry struct {
	Principal   string   `yaml:"principal"`
	Resource    string   `yaml:"resource"`
	Permissions []string `yaml:"permissions"`
	Effect      string   `yaml:"effect"` // "allow" | "deny"
}

// RBACConfig declares roles, their permissions and inheritance.
type RBACConfig struct {
	Roles             map[string]RoleConfig `yaml:"roles"`
	PrincipalRoles    map[string][]string   `yaml:"principal_roles"`
}

// RoleConfig is one named role: its own permissions plus inherited roles.
type RoleConfig struct {
	Permissions []string `yaml:"permissions"`
	Inherits    []string `yaml:"inherits"`
}

// AuditSinkKind selects which AuditLog implementation pkg/osl/audit wires up.
type AuditSinkKind string

const (
	AuditSinkConsole   AuditSinkKind = "console"
	AuditSinkFile      AuditSinkKind = "file"
	AuditSinkRing      AuditSinkKind = "ring"
	AuditSinkBroadcast AuditSinkKind = "broadcast"
)

// AuditConfig selects and configures the audit logger.
type AuditConfig struct {
	Sink          AuditSinkKind `yaml:"sink"`
	FilePath      string        `yaml:"file_path"`
	RingCapacity  int           `yaml:"ring_capacity"`
	BroadcastAddr string        `yaml:"broadcast_addr"`
	BroadcastKey  string        `yaml:"broadcast_channel"`
}

// SupervisorConfig holds default restart-backoff and rate-limit parameters
// for pkg/rt/supervisor; individual ChildSpecs may override per-child.
type SupervisorConfig struct {
	MaxRestarts     int           `yaml:"max_restarts"`
	RestartWindow   time.Duration `yaml:"restart_window"`
	BaseDelay       time.Duration `yaml:"base_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	JitterFactor    float64       `yaml:"jitter_factor"`
	DeterministicJitter bool      `yaml:"deterministic_jitter"`
	RestartHistorySize int        `yaml:"restart_history_size"`
}

// ResourceLimits bounds a WASM component's memory, fuel, execution time
// and storage.
type ResourceLimits struct {
	MaxMemoryBytes  uint64        `yaml:"max_memory_bytes"`
	MaxFuel         uint64        `yaml:"max_fuel"`
	MaxExecutionMS  uint64        `yaml:"max_execution_ms"`
	MaxStorageBytes uint64        `yaml:"max_storage_bytes"`
}

// Default returns the zero-configuration defaults every field falls back
// to when a YAML document omits them, with AIRSSYS_... environment
// overrides already applied on top — callers that never load a YAML
// file (e.g. cmd/airssys-host's no-config-flag path) still pick up
// environment-driven overrides this way.
func Default() *Config {
	cfg := rawDefaults()
	cfg.applyEnv()
	return cfg
}

// rawDefaults returns the hard-coded defaults with no environment layer
// applied, used as the base both Default() and Parse() build on.
func rawDefaults() *Config {
	return &Config{
		Security: SecurityConfig{
			Mode: ModeStrict,
		},
		Audit: AuditConfig{
			Sink:         AuditSinkConsole,
			RingCapacity: 1024,
		},
		Supervisor: SupervisorConfig{
			MaxRestarts:        5,
			RestartWindow:      60 * time.Second,
			BaseDelay:          100 * time.Millisecond,
			MaxDelay:           60 * time.Second,
			RestartHistorySize: 100,
		},
		Resources: ResourceLimits{
			MaxMemoryBytes: 64 * 1024 * 1024,
			MaxFuel:        10_000_000,
			MaxExecutionMS: 5_000,
			MaxStorageBytes: 16 * 1024 * 1024,
		},
	}
}

// Load reads and strictly decodes a YAML configuration file, rejecting
// unknown fields, layers it over Default(), then applies any
// AIRSSYS_... environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes raw YAML bytes the same way Load does, for callers that
// already have the document in memory (e.g. embedded config, tests),
// then applies environment overrides exactly as Load does.
func Parse(data []byte) (*Config, error) {
	cfg := rawDefaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides cfg's scalar fields from AIRSSYS_... environment
// variables, the highest-priority layer. Structured fields (ACL rules,
// RBAC roles) have no sensible flat env-var mapping and stay YAML-only.
func (c *Config) applyEnv() {
	if v := os.Getenv("AIRSSYS_SECURITY_MODE"); v != "" {
		c.Security.Mode = SecurityMode(v)
	}

	if v := os.Getenv("AIRSSYS_AUDIT_SINK"); v != "" {
		c.Audit.Sink = AuditSinkKind(v)
	}
	if v := os.Getenv("AIRSSYS_AUDIT_FILE_PATH"); v != "" {
		c.Audit.FilePath = v
	}
	if v := os.Getenv("AIRSSYS_AUDIT_RING_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Audit.RingCapacity = n
		}
	}
	if v := os.Getenv("AIRSSYS_AUDIT_BROADCAST_ADDR"); v != "" {
		c.Audit.BroadcastAddr = v
	}
	if v := os.Getenv("AIRSSYS_AUDIT_BROADCAST_CHANNEL"); v != "" {
		c.Audit.BroadcastKey = v
	}

	if v := os.Getenv("AIRSSYS_SUPERVISOR_MAX_RESTARTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Supervisor.MaxRestarts = n
		}
	}
	if v := os.Getenv("AIRSSYS_SUPERVISOR_RESTART_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Supervisor.RestartWindow = d
		}
	}
	if v := os.Getenv("AIRSSYS_SUPERVISOR_BASE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Supervisor.BaseDelay = d
		}
	}
	if v := os.Getenv("AIRSSYS_SUPERVISOR_MAX_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Supervisor.MaxDelay = d
		}
	}
	if v := os.Getenv("AIRSSYS_SUPERVISOR_JITTER_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Supervisor.JitterFactor = f
		}
	}
	if v := os.Getenv("AIRSSYS_SUPERVISOR_DETERMINISTIC_JITTER"); v != "" {
		c.Supervisor.DeterministicJitter = parseBool(v)
	}
	if v := os.Getenv("AIRSSYS_SUPERVISOR_RESTART_HISTORY_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Supervisor.RestartHistorySize = n
		}
	}

	if v := os.Getenv("AIRSSYS_RESOURCES_MAX_MEMORY_BYTES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Resources.MaxMemoryBytes = n
		}
	}
	if v := os.Getenv("AIRSSYS_RESOURCES_MAX_FUEL"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Resources.MaxFuel = n
		}
	}
	if v := os.Getenv("AIRSSYS_RESOURCES_MAX_EXECUTION_MS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Resources.MaxExecutionMS = n
		}
	}
	if v := os.Getenv("AIRSSYS_RESOURCES_MAX_STORAGE_BYTES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Resources.MaxStorageBytes = n
		}
	}
}

// parseBool converts a string to a boolean value. Accepts "true", "1",
// "yes", "on" (case-insensitive) as true; everything else is false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
