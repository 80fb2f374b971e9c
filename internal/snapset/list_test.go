package snapset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/snapset/internal/lvm"
)

func TestList(t *testing.T) {
	vm := testVM()
	vm.groups = []lvm.ReportGroup{
		{
			VG: lvm.VGInfo{Name: "vg00"},
			LVs: []lvm.LVInfo{
				{Name: "data", FullName: "vg00/data", Path: "/dev/vg00/data", Size: 10 * gib, Attr: "-wi-ao----"},
				{Name: "data_nightly", FullName: "vg00/data_nightly", Path: "/dev/vg00/data_nightly",
					Size: 2 * gib, Origin: "data", Attr: "swi-a-s---"},
			},
		},
		{
			VG: lvm.VGInfo{Name: "vg01"},
		},
	}
	vm.mounts["/dev/vg00/data_nightly"] = []lvm.MountRecord{
		{Target: "/mnt/snap", Source: "/dev/mapper/vg00-data_nightly", FSType: "xfs", Options: "rw"},
	}
	o := newTestOrchestrator(vm, nil, false)

	data, res, err := o.List(context.Background(), lvm.Filter{})
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	assert.False(t, res.Changed)

	require.Len(t, data.Volumes["vg00"], 2)
	snap := data.Volumes["vg00"][1]
	assert.Equal(t, "data_nightly", snap.Name)
	assert.Equal(t, "data", snap.Origin)
	assert.Equal(t, uint64(2*gib), snap.Size)

	assert.Empty(t, data.Volumes["vg01"], "empty volume groups still appear")
	assert.Contains(t, data.Volumes, "vg01")

	require.Len(t, data.Mounts["/dev/vg00/data_nightly"], 1)
	m := data.Mounts["/dev/vg00/data_nightly"][0]
	assert.Equal(t, "/mnt/snap", m.Target)
	assert.Equal(t, "xfs", m.FSType)
}

func TestList_Filtered(t *testing.T) {
	vm := discoveryVM()
	o := newTestOrchestrator(vm, nil, false)

	data, res, err := o.List(context.Background(), lvm.Filter{VG: "vg00", LV: "data"})
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	require.Len(t, data.Volumes["vg00"], 1)
	assert.Equal(t, "data", data.Volumes["vg00"][0].Name)
}
