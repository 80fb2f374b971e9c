package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/lvm"
)

// List reports the volumes matched by the filter together with their
// current mounts. Read-only; list never changes anything and never
// distinguishes a sparse inventory from a miss.
func (o *Orchestrator) List(ctx context.Context, f lvm.Filter) (*ListData, Result, error) {
	groups, err := o.lvm.Volumes(ctx, f)
	if err != nil {
		res, err := failureFromError(err, StatusCommandFailed)
		return nil, res, err
	}

	data := &ListData{
		Volumes: make(map[string][]VolumeRecord),
		Mounts:  make(map[string][]MountPoint),
	}

	for _, group := range groups {
		records := make([]VolumeRecord, 0, len(group.LVs))
		for _, lv := range group.LVs {
			records = append(records, VolumeRecord{
				Name:     lv.Name,
				FullName: lv.FullName,
				Path:     lv.Path,
				Size:     lv.Size,
				Origin:   lv.Origin,
				PoolLV:   lv.PoolLV,
				Attr:     lv.Attr,
				Tags:     lv.Tags,
			})

			if lv.Path == "" {
				continue
			}
			mounts, err := o.lvm.MountPoints(ctx, lv.Path)
			if err != nil {
				res, err := failureFromError(err, StatusCommandFailed)
				return nil, res, err
			}
			for _, m := range mounts {
				data.Mounts[lv.Path] = append(data.Mounts[lv.Path], MountPoint{
					Target:  m.Target,
					Source:  m.Source,
					FSType:  m.FSType,
					Options: m.Options,
				})
			}
		}
		data.Volumes[group.VG.Name] = records
	}

	return data, ok(), nil
}
