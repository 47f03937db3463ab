// Command airssys-host runs the AirsSys WASM host process: it loads
// configuration, wires the OS-layer security/audit pipeline, starts the
// actor runtime and supervision tree, and hosts WASM components behind
// the capability checker and messaging layer until signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/airsstack/airssys/pkg/config"
	"github.com/airsstack/airssys/pkg/logger"
	"github.com/airsstack/airssys/pkg/osl"
	"github.com/airsstack/airssys/pkg/osl/audit"
	"github.com/airsstack/airssys/pkg/osl/security"
	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/rt/supervisor"
	"github.com/airsstack/airssys/pkg/telemetry"
	"github.com/airsstack/airssys/pkg/wasmhost"
	"github.com/airsstack/airssys/pkg/wasmhost/capability"
	"github.com/airsstack/airssys/pkg/wasmhost/component"
	"github.com/airsstack/airssys/pkg/wasmhost/engine/wasmerengine"
	"github.com/airsstack/airssys/pkg/wasmhost/messaging"
)

func main() {
	configPath := flag.String("config", "", "path to airssys.yaml; defaults if empty")
	flag.Parse()

	log := logger.NewDefaultLogger()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	tracer, shutdownTracing, err := telemetry.Init(context.Background(), "airssys-host")
	if err != nil {
		log.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}

	host, err := newHost(cfg, log, tracer)
	if err != nil {
		log.Error("failed to build host", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := host.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("telemetry shutdown reported error", "error", err)
	}

	if runErr != nil {
		log.Error("host exited with error", "error", runErr)
		os.Exit(1)
	}
}

// host is the composition root: every subsystem the process owns,
// wired together once at startup and torn down together on shutdown.
type host struct {
	log logger.Logger

	auditor    osl.Auditor
	pipeline   *osl.Pipeline[osl.Operation, osl.ExecutionResult]
	broker     *rt.Broker[wasmhost.Message]
	actors     *rt.ActorSystem[wasmhost.Message]
	root       *supervisor.Supervisor
	registry   *wasmhost.Registry
	capStore   *wasmhost.CapabilityStore
	checker    *capability.Checker
	patterns   *messaging.Patterns
	router     *messaging.Router
	limits     config.ResourceLimits
	shutdownTO time.Duration
}

func newHost(cfg *config.Config, log logger.Logger, tracer trace.Tracer) (*host, error) {
	auditor, err := buildAuditor(cfg.Audit, log)
	if err != nil {
		return nil, fmt.Errorf("build auditor: %w", err)
	}

	policies, err := buildPolicySet(cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("build security policy: %w", err)
	}

	registry := wasmhost.NewRegistry()
	capStore := wasmhost.NewCapabilityStore()
	checker := capability.NewChecker(capStore, auditor)

	broker := rt.NewBroker[wasmhost.Message](rt.DefaultBrokerConfig())
	actors := rt.NewActorSystem[wasmhost.Message](broker, rt.DefaultSystemConfig(), log).WithTracer(tracer)

	root := supervisor.NewSupervisor(supervisor.OneForOne, log).WithTracer(tracer)
	root.OnEscalate(func(esc *supervisor.EscalationError) {
		log.Error("supervisor escalation reached host root", "child", esc.ChildID, "reason", esc.Reason)
	})

	patterns := messaging.NewPatterns(broker)
	router := messaging.NewRouter(patterns, func(env rt.Envelope[wasmhost.Message]) {
		log.Warn("dead-lettered response", "kind", env.Payload.Kind)
	})

	// Administrative operations (component load/unload) run through the
	// same security-guarded pipeline pkg/osl wraps around every
	// privileged action; per-call capability grants on the loaded
	// component are enforced separately by checker on the hot path.
	adminExecutor := osl.ExecutorFunc[osl.Operation, osl.ExecutionResult](
		func(ec osl.ExecutionContext, op osl.Operation) (osl.ExecutionResult, error) {
			now := time.Now().UTC()
			return osl.ExecutionResult{Status: osl.ExitSuccess, StartedAt: now, EndedAt: now}, nil
		},
	)
	pipeline := osl.New[osl.Operation, osl.ExecutionResult](adminExecutor).
		Wrap(osl.NewSecurityMiddleware(policies, auditor)).
		WithAuditor(auditor).
		WithTracer(tracer)

	return &host{
		log:        log,
		auditor:    auditor,
		pipeline:   pipeline,
		broker:     broker,
		actors:     actors,
		root:       root,
		registry:   registry,
		capStore:   capStore,
		checker:    checker,
		patterns:   patterns,
		router:     router,
		limits:     cfg.Resources,
		shutdownTO: 10 * time.Second,
	}, nil
}

// Run starts the supervision tree and blocks until ctx is canceled
// (typically by SIGINT/SIGTERM), then drains every subsystem in
// reverse dependency order.
func (h *host) Run(ctx context.Context) error {
	h.router.Start()

	if err := h.root.AddChild(supervisor.ChildSpec{
		ID:      "actor-system",
		Factory: func() supervisor.Child { return newActorSystemChild(h.actors) },
		Restart: supervisor.Permanent,
		Shutdown: supervisor.Graceful(h.shutdownTO),
		Backoff: supervisor.BackoffConfig{
			MaxRestarts:   5,
			RestartWindow: time.Minute,
			BaseDelay:     100 * time.Millisecond,
			MaxDelay:      10 * time.Second,
		},
	}); err != nil {
		return fmt.Errorf("register actor-system child: %w", err)
	}

	h.log.Info("airssys-host started")
	<-ctx.Done()
	h.log.Info("shutdown signal received, draining host")

	return h.shutdown()
}

func (h *host) shutdown() error {
	h.router.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTO)
	defer cancel()

	if err := h.root.Stop(supervisor.Graceful(h.shutdownTO)); err != nil {
		h.log.Error("supervisor stop reported error", "error", err)
	}

	if err := h.actors.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("actor system shutdown: %w", err)
	}

	h.broker.Shutdown()
	return h.auditor.Flush()
}

// LoadComponent registers a WASM component's address, capability set
// and a supervised actor hosting it, wiring the fuel/timeout-bounded
// wasmerengine.Engine as its execution boundary.
func (h *host) LoadComponent(id wasmhost.ComponentID, comp *wasmhost.Component, wasmBytes []byte, hooks component.LifecycleHooks) error {
	op := osl.Operation{
		ID:          "load:" + string(id),
		Kind:        osl.KindProcess,
		Resource:    string(id),
		Permissions: []osl.Permission{"load"},
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := h.pipeline.Execute(osl.NewExecutionContext(context.Background(), "host"), op); err != nil {
		return fmt.Errorf("load %s denied: %w", id, err)
	}

	h.capStore.RegisterComponent(id, comp.Capabilities)

	eng := wasmerengine.New()
	actor := component.NewActor(comp, wasmBytes, eng, hooks)

	childID := string(id)
	spec := supervisor.ChildSpec{
		ID:       childID,
		Restart:  supervisor.Permanent,
		Shutdown: supervisor.Graceful(5 * time.Second),
		Backoff: supervisor.BackoffConfig{
			MaxRestarts:   3,
			RestartWindow: 30 * time.Second,
			BaseDelay:     50 * time.Millisecond,
			MaxDelay:      5 * time.Second,
		},
	}
	spec.Factory = func() supervisor.Child {
		return newComponentChild(h.actors, actor, childID, h.registry, id)
	}
	return h.root.AddChild(spec)
}

// LoadComponentFromManifest reads a component's permission manifest,
// derives its capability set and storage quota from it, and loads the
// component the same way LoadComponent does.
func (h *host) LoadComponentFromManifest(id wasmhost.ComponentID, meta wasmhost.ComponentMetadata, manifestPath string, wasmBytes []byte, hooks component.LifecycleHooks) error {
	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest for %s: %w", id, err)
	}
	comp := wasmhost.ComponentFromManifest(id, meta, manifest, wasmhost.ResourceLimits{
		MaxMemoryBytes:     h.limits.MaxMemoryBytes,
		MaxFuel:            h.limits.MaxFuel,
		MaxExecutionMillis: h.limits.MaxExecutionMS,
		MaxStorageBytes:    h.limits.MaxStorageBytes,
	})
	return h.LoadComponent(id, comp, wasmBytes, hooks)
}

// CheckCapability is the entry point host-function dispatch calls
// before granting a component access to messaging, storage, filesystem
// or network resources. A denial surfaces as a CapabilityDenied error
// the host function returns to the calling component.
func (h *host) CheckCapability(componentID string, category capability.Category, resource, permission string) error {
	if !h.checker.Check(componentID, category, resource, permission) {
		return wasmhost.NewCapabilityDenied("host.CheckCapability", wasmhost.ComponentID(componentID), resource, permission)
	}
	return nil
}

func buildAuditor(cfg config.AuditConfig, log logger.Logger) (osl.Auditor, error) {
	switch cfg.Sink {
	case config.AuditSinkFile:
		return audit.NewFile(cfg.FilePath)
	case config.AuditSinkRing:
		capacity := cfg.RingCapacity
		if capacity <= 0 {
			capacity = 1024
		}
		return audit.NewRing(capacity), nil
	case config.AuditSinkBroadcast:
		return audit.NewBroadcast(context.Background(), audit.BroadcastOptions{
			RedisURL: cfg.BroadcastAddr,
			Channel:  cfg.BroadcastKey,
		})
	default:
		return audit.NewConsole(log), nil
	}
}

func buildPolicySet(cfg config.SecurityConfig) (security.Set, error) {
	mode := security.Strict
	switch cfg.Mode {
	case config.ModePermissive:
		mode = security.Permissive
	case config.ModeDevelopment:
		mode = security.Trusted
	}

	var policies []security.Policy

	if len(cfg.ACL) > 0 {
		entries := make([]security.ACLEntry, 0, len(cfg.ACL))
		for _, e := range cfg.ACL {
			effect := security.Allow
			if e.Effect == "deny" {
				effect = security.Deny
			}
			entries = append(entries, security.ACLEntry{
				PrincipalPattern: e.Principal,
				ResourcePattern:  e.Resource,
				Permissions:      e.Permissions,
				Effect:           effect,
			})
		}
		policies = append(policies, security.NewACL(entries))
	}

	if len(cfg.RBAC.Roles) > 0 {
		roles := make(map[string]security.Role, len(cfg.RBAC.Roles))
		for name, r := range cfg.RBAC.Roles {
			roles[name] = security.Role{Name: name, Permissions: r.Permissions, Inherits: r.Inherits}
		}
		rbac, err := security.NewRBAC(roles, cfg.RBAC.PrincipalRoles)
		if err != nil {
			return security.Set{}, fmt.Errorf("rbac: %w", err)
		}
		policies = append(policies, rbac)
	}

	return security.Set{Mode: mode, Policies: policies}, nil
}
