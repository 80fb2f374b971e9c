package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/lvm"
)

// VolumeManager defines the LVM operations the orchestrator needs.
//
// In production this is satisfied by *lvm.Client. In tests it is
// satisfied by mock implementations.
type VolumeManager interface {
	// LVExists checks the volume group and logical volume for
	// existence. An empty lv checks only the group.
	LVExists(ctx context.Context, vgName, lvName string) (vgExists, lvExists bool, err error)

	// IsSnapshot reports whether vg/lv is a snapshot; missing volumes
	// are false, not an error.
	IsSnapshot(ctx context.Context, vgName, lvName string) (bool, error)

	// IsThinpool reports whether vg/lv is a thin pool.
	IsThinpool(ctx context.Context, vgName, lvName string) (bool, error)

	// IsInUse reports whether vg/lv is currently open.
	IsInUse(ctx context.Context, vgName, lvName string) (bool, error)

	// Volumes enumerates (vg, lvs) groups matching the filter.
	Volumes(ctx context.Context, f lvm.Filter) ([]lvm.ReportGroup, error)

	// CaptureSpaceState snapshots every volume group's capacity facts.
	CaptureSpaceState(ctx context.Context) (lvm.SpaceState, error)

	// MountPoints resolves the current mounts of a device or path.
	MountPoints(ctx context.Context, target string) ([]lvm.MountRecord, error)

	// CreateSnapshot creates a snapshot of vg/lv with the given name
	// and size in bytes.
	CreateSnapshot(ctx context.Context, vgName, lvName, snapshotName string, size uint64) (string, error)

	// ExtendLV grows vg/lv to the given size in bytes.
	ExtendLV(ctx context.Context, vgName, lvName string, size uint64) (string, error)

	// MergeRevert merges the snapshot back into its origin.
	MergeRevert(ctx context.Context, vgName, snapshotName string) (string, error)

	// RemoveLV removes vg/lv.
	RemoveLV(ctx context.Context, vgName, lvName string) (string, error)
}
