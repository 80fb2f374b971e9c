// Package naming provides the deterministic naming conventions for
// snapshot volumes. A snapshot's name is derived from its origin volume
// and the snapshot set name, so that every member of a set can be found
// again from the set name alone.
package naming

import "fmt"

// MaxNameLength is the longest logical volume name LVM accepts.
const MaxNameLength = 127

// SnapshotName derives the snapshot volume name for a source LV.
// Format: {lvName}_{suffix}. An empty suffix yields a trailing
// underscore, which is still a valid LVM name.
func SnapshotName(lvName, suffix string) string {
	return lvName + "_" + suffix
}

// CheckName validates that the derived snapshot name fits within the
// volume manager's maximum name length.
func CheckName(lvName, suffix string) error {
	if len(lvName)+len(suffix) > MaxNameLength {
		return fmt.Errorf("resulting snapshot name would exceed LVM maximum: %s", SnapshotName(lvName, suffix))
	}
	return nil
}

// Owns reports whether lvName carries the set suffix, i.e. whether the
// volume was produced by a set with that name.
func Owns(lvName, suffix string) bool {
	if suffix == "" {
		return true
	}
	if len(lvName) < len(suffix) {
		return false
	}
	return lvName[len(lvName)-len(suffix):] == suffix
}
