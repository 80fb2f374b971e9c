// Package config defines the snapshot set description and its YAML
// loading. A set is built once per invocation and read-only afterwards.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SnapshotSet is a named, ordered group of per-volume operations. The
// set name is the suffix every member's snapshot name is derived from.
// Volume order is preserved as given, never resequenced.
type SnapshotSet struct {
	Name    string       `yaml:"name" json:"name"`
	Volumes []VolumeSpec `yaml:"volumes" json:"volumes"`
}

// VolumeSpec describes one member of a snapshot set.
type VolumeSpec struct {
	VG string `yaml:"vg" json:"vg"`
	LV string `yaml:"lv" json:"lv"`

	// PercentSpaceRequired sizes the snapshot as a percentage of the
	// source volume. Must be an integer greater than 1.
	PercentSpaceRequired int `yaml:"percent_space_required" json:"percent_space_required"`

	// Mount options. Blockdev overrides the derived /dev/{vg}/{lv}
	// path for mounting an arbitrary block device.
	Mountpoint       string `yaml:"mountpoint,omitempty" json:"mountpoint,omitempty"`
	Blockdev         string `yaml:"blockdev,omitempty" json:"blockdev,omitempty"`
	FSType           string `yaml:"fstype,omitempty" json:"fstype,omitempty"`
	MountOptions     string `yaml:"mount_options,omitempty" json:"mount_options,omitempty"`
	MountpointCreate bool   `yaml:"mountpoint_create,omitempty" json:"mountpoint_create,omitempty"`

	// MountOrigin targets the origin volume instead of the snapshot.
	MountOrigin bool `yaml:"mount_origin,omitempty" json:"mount_origin,omitempty"`

	// AllTargets unmounts every mount of the device, not just the
	// given mountpoint.
	AllTargets bool `yaml:"all_targets,omitempty" json:"all_targets,omitempty"`
}

// Validate checks the structural requirements of a set. Operation
// specific requirements (percent bounds, mountpoints) are verified by
// the orchestrator so they surface through the status contract.
func (s *SnapshotSet) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("snapshot set name is required")
	}
	if len(s.Volumes) == 0 {
		return fmt.Errorf("snapshot set %q has no volumes", s.Name)
	}
	for i, vol := range s.Volumes {
		if vol.VG == "" {
			return fmt.Errorf("volumes[%d]: vg is required", i)
		}
		if vol.LV == "" {
			return fmt.Errorf("volumes[%d]: lv is required", i)
		}
	}
	return nil
}

// LoadFromFile loads a snapshot set description from a YAML file.
func LoadFromFile(path string) (*SnapshotSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return LoadFromYAML(data)
}

// LoadFromYAML loads and validates a snapshot set from YAML bytes.
func LoadFromYAML(data []byte) (*SnapshotSet, error) {
	var set SnapshotSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &set, nil
}
