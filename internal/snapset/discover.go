package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/naming"
)

// DiscoverSet builds a snapshot set from the live inventory instead of
// a config file. Volumes that are themselves snapshots or thin pools
// are skipped, as are snapshots this suffix already produced, so a
// discovered set always names origin volumes only. The template
// supplies the per-volume settings the inventory cannot, notably the
// space percentage.
func (o *Orchestrator) DiscoverSet(ctx context.Context, f lvm.Filter, suffix string, template config.VolumeSpec) (*config.SnapshotSet, Result, error) {
	groups, err := o.lvm.Volumes(ctx, f)
	if err != nil {
		res, err := failureFromError(err, StatusCommandFailed)
		return nil, res, err
	}

	set := &config.SnapshotSet{Name: suffix}
	for _, group := range groups {
		for _, lv := range group.LVs {
			if lvm.IsSnapshotAttr(lv.Attr) || lvm.IsThinpoolAttr(lv.Attr) {
				continue
			}
			if naming.Owns(lv.Name, suffix) {
				continue
			}

			vol := template
			vol.VG = group.VG.Name
			vol.LV = lv.Name
			set.Volumes = append(set.Volumes, vol)
		}
	}

	o.log.WithFields(map[string]interface{}{
		"snapset": suffix,
		"volumes": len(set.Volumes),
	}).Debug("discovered snapshot set from inventory")

	return set, ok(), nil
}
