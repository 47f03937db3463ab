package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the permission manifest consumed when a WASM component is
// loaded: the filesystem, network and storage grants the component
// declares up front. Unknown fields are rejected.
type Manifest struct {
	Permissions ManifestPermissions `yaml:"permissions"`
}

// ManifestPermissions groups a component's declared grants by category.
type ManifestPermissions struct {
	Filesystem ManifestFilesystem `yaml:"filesystem"`
	Network    ManifestNetwork    `yaml:"network"`
	Storage    ManifestStorage    `yaml:"storage"`
}

// ManifestFilesystem declares path-glob grants per filesystem verb.
type ManifestFilesystem struct {
	Read   []string `yaml:"read"`
	Write  []string `yaml:"write"`
	Delete []string `yaml:"delete"`
	List   []string `yaml:"list"`
}

// OutboundRule is one permitted outbound connection target: a host glob
// plus a port. Port 0 means any port on matching hosts.
type OutboundRule struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
}

// ManifestNetwork declares outbound connect targets and inbound bind
// ports.
type ManifestNetwork struct {
	Outbound []OutboundRule `yaml:"outbound"`
	Inbound  []uint16       `yaml:"inbound"`
}

// ManifestStorage declares the key-value namespaces a component may use
// and its storage quota.
type ManifestStorage struct {
	Namespaces []string `yaml:"namespaces"`
	MaxSizeMB  uint64   `yaml:"max_size_mb"`
}

// LoadManifest reads and strictly decodes a component manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes raw manifest YAML, rejecting unknown fields.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("config: decode manifest: %w", err)
	}
	return &m, nil
}
