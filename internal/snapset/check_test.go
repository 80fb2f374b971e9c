package snapset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/snapset/internal/lvm"
)

func TestCheckVerifySet(t *testing.T) {
	vm := testVMWithSnapshots()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifySet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status, res.Message)
}

func TestCheckVerifySet_MissingSnapshot(t *testing.T) {
	vm := testVM()
	vm.addLV("vg00", "data_nightly", "swi-a-s---", 2*gib)
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifySet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusVerifyFailed, res.Status)
	assert.Contains(t, res.Message, "vg00/logs_nightly")
}

func TestCheckVerifySet_MissingSource(t *testing.T) {
	vm := testVMWithSnapshots()
	set := testSet()
	set.Volumes[0].LV = "gone"
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifySet(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, StatusSourceNotFound, res.Status)
}

func discoveryVM() *mockVM {
	vm := testVMWithSnapshots()
	vm.groups = []lvm.ReportGroup{
		{
			VG: lvm.VGInfo{Name: "vg00"},
			LVs: []lvm.LVInfo{
				{Name: "data", Attr: "-wi-ao----"},
				{Name: "logs", Attr: "-wi-ao----"},
				{Name: "data_nightly", Attr: "swi-a-s---", Origin: "data"},
				{Name: "logs_nightly", Attr: "swi-a-s---", Origin: "logs"},
			},
		},
	}
	return vm
}

func TestCheckVerifyAll(t *testing.T) {
	vm := discoveryVM()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifyAll(context.Background(), lvm.Filter{}, "nightly", true)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status, res.Message)
}

func TestCheckVerifyAll_MissingSnapshot(t *testing.T) {
	vm := discoveryVM()
	delete(vm.lvs, "vg00/logs_nightly")
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifyAll(context.Background(), lvm.Filter{}, "nightly", true)
	require.NoError(t, err)
	assert.Equal(t, StatusVerifyFailed, res.Status)
}

func TestCheckVerifyAll_NoMatch(t *testing.T) {
	vm := discoveryVM()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifyAll(context.Background(), lvm.Filter{VG: "vg99"}, "nightly", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSourceNotFound, res.Status)

	res, err = o.CheckVerifyAll(context.Background(), lvm.Filter{VG: "vg00", LV: "missing"}, "nightly", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSourceNotFound, res.Status)
}

func TestCheckVerifyAll_NoMatchAllowedWhenSnapshotAll(t *testing.T) {
	vm := discoveryVM()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CheckVerifyAll(context.Background(), lvm.Filter{VG: "vg99"}, "nightly", true)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
}
