package snapset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSet(t *testing.T) {
	vm := testVM()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status, res.Message)
	assert.True(t, res.Changed)

	// 20% of 10GiB is extent aligned; 20% of 8GiB rounds up to the
	// next 4MiB extent
	assert.Equal(t, []string{
		"vg00/data_nightly<-data:2147483648",
		"vg00/logs_nightly<-logs:1719664640",
	}, vm.created)
}

func TestCreateSet_Idempotent(t *testing.T) {
	vm := testVM()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	require.Equal(t, StatusOK, res.Status)
	require.True(t, res.Changed)

	// second run: everything already exists as our snapshots
	res, err = o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status, res.Message)
	assert.False(t, res.Changed, "no-op rerun must report changed=false")
	assert.Len(t, vm.created, 2, "rerun must not create anything")
}

func TestCreateSet_CompletesPartialSet(t *testing.T) {
	vm := testVM()
	vm.addLV("vg00", "data_nightly", "swi-a-s---", 2*gib)
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status, res.Message)
	assert.True(t, res.Changed)
	require.Len(t, vm.created, 1)
	assert.Contains(t, vm.created[0], "vg00/logs_nightly")
}

func TestCreateSet_NameConflict(t *testing.T) {
	// an ordinary volume already carries the derived name
	vm := testVM()
	vm.addLV("vg00", "data_nightly", "-wi-a-----", 1*gib)
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusNameConflict, res.Status)
	assert.Empty(t, vm.created, "conflict must abort before any creation")
}

func TestCreateSet_SourceNotFound(t *testing.T) {
	vm := testVM()
	set := testSet()
	set.Volumes[1].LV = "missing"
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, StatusSourceNotFound, res.Status)
	assert.Empty(t, vm.created)
}

func TestCreateSet_VGNotFound(t *testing.T) {
	vm := testVM()
	set := testSet()
	set.Volumes[0].VG = "vg99"
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, StatusSourceNotFound, res.Status)
}

func TestCreateSet_InvalidPercent(t *testing.T) {
	for _, percent := range []int{0, 1, -5} {
		vm := testVM()
		set := testSet()
		set.Volumes[0].PercentSpaceRequired = percent
		o := newTestOrchestrator(vm, nil, false)

		res, err := o.CreateSet(context.Background(), set)
		require.NoError(t, err)
		assert.Equal(t, StatusInvalidPercent, res.Status, "percent=%d", percent)
	}
}

func TestCreateSet_InsufficientSpace(t *testing.T) {
	// both snapshots fit alone, not together
	vm := newMockVM()
	vm.addVG("vg00", 3*gib, 4*mib)
	vm.addLV("vg00", "data", "-wi-ao----", 10*gib)
	vm.addLV("vg00", "logs", "-wi-ao----", 8*gib)
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientSpace, res.Status)
	assert.Empty(t, vm.created, "space failure must precede any creation")
}

func TestCreateSet_NameTooLong(t *testing.T) {
	longLV := make([]byte, 130)
	for i := range longLV {
		longLV[i] = 'x'
	}

	vm := testVM()
	vm.addLV("vg00", string(longLV), "-wi-ao----", 1*gib)
	set := testSet()
	set.Volumes[0].LV = string(longLV)
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.CreateSet(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, StatusNameTooLong, res.Status)
}

func TestCreateSet_DryRun(t *testing.T) {
	vm := testVM()
	o := newTestOrchestrator(vm, nil, true)

	res, err := o.CreateSet(context.Background(), testSet())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.False(t, res.Changed, "dry run must report changed=false")
}

func TestPrecheckSet_ReadOnly(t *testing.T) {
	vm := testVM()
	o := newTestOrchestrator(vm, nil, false)

	res, err := o.Run(context.Background(), OpCheck, testSet(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status, res.Message)
	assert.False(t, res.Changed)
	assert.Empty(t, vm.created, "check must never create")
}
