// Package space computes required snapshot capacity and set-wide
// feasibility from a captured inventory snapshot.
package space

import (
	"fmt"

	units "github.com/docker/go-units"

	"github.com/jbweber/snapset/internal/lvm"
)

// MinSnapshotSize is the hard floor for a snapshot volume (512 MiB).
// Very small copy-on-write snapshots exhaust their space almost
// immediately under write load, silently invalidating the snapshot.
const MinSnapshotSize = 512 * 1024 * 1024

// PercentOf returns ceil(value * percent / 100).
func PercentOf(percent int, value uint64) uint64 {
	p := uint64(percent)
	return (value*p + 99) / 100
}

// RoundUp rounds n up to the next multiple. A zero multiple returns n
// unchanged.
func RoundUp(n, multiple uint64) uint64 {
	if multiple == 0 {
		return n
	}
	return (n + multiple - 1) / multiple * multiple
}

// Required computes the snapshot capacity for a source volume: percent
// of the source size, rounded up to the extent size, never below
// MinSnapshotSize.
func Required(lvSize uint64, percent int, extentSize uint64) uint64 {
	required := RoundUp(PercentOf(percent, lvSize), extentSize)
	if required < MinSnapshotSize {
		return MinSnapshotSize
	}
	return required
}

// Needed looks up vg/lv in the captured state and computes its required
// snapshot capacity.
func Needed(state lvm.SpaceState, vgName, lvName string, percent int) (uint64, error) {
	vg, ok := state[vgName]
	if !ok {
		return 0, fmt.Errorf("volume group not in inventory: %s", vgName)
	}
	lv, ok := vg.LVs[lvName]
	if !ok {
		return 0, fmt.Errorf("logical volume not in inventory: %s/%s", vgName, lvName)
	}
	return Required(lv.Size, percent, vg.ExtentSize), nil
}

// Claim is one volume's demand on its volume group.
type Claim struct {
	VG      string
	LV      string
	Percent int
}

// InsufficientSpaceError reports a volume group that cannot hold the
// snapshots claimed against it.
type InsufficientSpaceError struct {
	VG     string
	Needed uint64
	Free   uint64
}

// Error implements the error interface.
func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient space for snapshots in %s: need %s, %s free",
		e.VG, units.BytesSize(float64(e.Needed)), units.BytesSize(float64(e.Free)))
}

// CheckSetFeasibility sums the required snapshot capacity of every
// claim per volume group and fails if any group's total exceeds its
// free space. The whole set is checked against one state capture before
// any mutation happens.
func CheckSetFeasibility(state lvm.SpaceState, claims []Claim) error {
	totals := make(map[string]uint64)
	for _, claim := range claims {
		required, err := Needed(state, claim.VG, claim.LV, claim.Percent)
		if err != nil {
			return err
		}
		totals[claim.VG] += required
	}

	for _, claim := range claims {
		if totals[claim.VG] > state[claim.VG].Free {
			return &InsufficientSpaceError{
				VG:     claim.VG,
				Needed: totals[claim.VG],
				Free:   state[claim.VG].Free,
			}
		}
	}
	return nil
}
