package wasmhost

import (
	"strconv"
	"time"

	"github.com/airsstack/airssys/pkg/config"
	"github.com/airsstack/airssys/pkg/wasmhost/capability"
)

// CapabilitiesFromManifest translates a component's declared manifest
// into the capability.Set the checker enforces on the host-function
// path. Outbound network rules become "host:port" connect patterns
// (port 0 matches any port); inbound ports become bind grants; storage
// namespaces are granted read and write.
func CapabilitiesFromManifest(m *config.Manifest) capability.Set {
	var set capability.Set

	fs := m.Permissions.Filesystem
	for _, g := range []struct {
		patterns   []string
		permission string
	}{
		{fs.Read, capability.PermissionRead},
		{fs.Write, capability.PermissionWrite},
		{fs.Delete, "delete"},
		{fs.List, "list"},
	} {
		if len(g.patterns) > 0 {
			set.Add(capability.Grant{
				Category:         capability.Filesystem,
				ResourcePatterns: g.patterns,
				Permissions:      []string{g.permission},
			})
		}
	}

	net := m.Permissions.Network
	if len(net.Outbound) > 0 {
		patterns := make([]string, 0, len(net.Outbound))
		for _, rule := range net.Outbound {
			port := "*"
			if rule.Port != 0 {
				port = strconv.Itoa(int(rule.Port))
			}
			patterns = append(patterns, rule.Host+":"+port)
		}
		set.Add(capability.Grant{
			Category:         capability.Network,
			ResourcePatterns: patterns,
			Permissions:      []string{capability.PermissionConnect},
		})
	}
	if len(net.Inbound) > 0 {
		patterns := make([]string, 0, len(net.Inbound))
		for _, port := range net.Inbound {
			patterns = append(patterns, strconv.Itoa(int(port)))
		}
		set.Add(capability.Grant{
			Category:         capability.Network,
			ResourcePatterns: patterns,
			Permissions:      []string{capability.PermissionBind},
		})
	}

	storage := m.Permissions.Storage
	if len(storage.Namespaces) > 0 {
		set.Add(capability.Grant{
			Category:         capability.Storage,
			ResourcePatterns: storage.Namespaces,
			Permissions:      []string{capability.PermissionRead, capability.PermissionWrite},
		})
	}

	return set
}

// ComponentFromManifest builds a Component from its manifest: the
// capability set comes from the declared permissions, and the storage
// quota (max_size_mb) overrides limits' MaxStorageBytes when declared.
func ComponentFromManifest(id ComponentID, meta ComponentMetadata, m *config.Manifest, limits ResourceLimits) *Component {
	if quota := m.Permissions.Storage.MaxSizeMB; quota > 0 {
		limits.MaxStorageBytes = quota << 20
	}
	return &Component{
		ID:           id,
		Metadata:     meta,
		Limits:       limits,
		Capabilities: CapabilitiesFromManifest(m),
		LoadedAt:     time.Now().UTC(),
	}
}
