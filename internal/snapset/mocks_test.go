package snapset

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/mount"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockVM is an in-memory volume manager. Volumes live in lvs keyed by
// "vg/lv" with their attr string as value; mutations update the map so
// re-running an operation sees the new state.
type mockVM struct {
	lvs    map[string]string
	groups []lvm.ReportGroup
	state  lvm.SpaceState
	mounts map[string][]lvm.MountRecord

	created  []string
	extended []string
	merged   []string
	removed  []string

	// failOn makes the named mutation return an error
	failOn map[string]error
}

func newMockVM() *mockVM {
	return &mockVM{
		lvs:    make(map[string]string),
		state:  make(lvm.SpaceState),
		mounts: make(map[string][]lvm.MountRecord),
		failOn: make(map[string]error),
	}
}

// addVG registers a volume group with its capacity facts.
func (m *mockVM) addVG(name string, free, extentSize uint64) {
	m.state[name] = lvm.VGState{
		Size:       free * 2,
		Free:       free,
		ExtentSize: extentSize,
		LVs:        make(map[string]lvm.LVState),
	}
}

// addLV registers a logical volume in an already registered group.
func (m *mockVM) addLV(vgName, lvName, attr string, size uint64) {
	m.lvs[vgName+"/"+lvName] = attr
	m.state[vgName].LVs[lvName] = lvm.LVState{Size: size, ChunkSize: lvm.DefaultChunkSize}
}

func (m *mockVM) LVExists(_ context.Context, vgName, lvName string) (bool, bool, error) {
	if vgName == "" {
		return false, false, nil
	}
	if _, ok := m.state[vgName]; !ok {
		return false, false, nil
	}
	if lvName == "" {
		return true, false, nil
	}
	_, ok := m.lvs[vgName+"/"+lvName]
	return true, ok, nil
}

func (m *mockVM) IsSnapshot(_ context.Context, vgName, lvName string) (bool, error) {
	return lvm.IsSnapshotAttr(m.lvs[vgName+"/"+lvName]), nil
}

func (m *mockVM) IsThinpool(_ context.Context, vgName, lvName string) (bool, error) {
	return lvm.IsThinpoolAttr(m.lvs[vgName+"/"+lvName]), nil
}

func (m *mockVM) IsInUse(_ context.Context, vgName, lvName string) (bool, error) {
	return lvm.IsOpenAttr(m.lvs[vgName+"/"+lvName]), nil
}

func (m *mockVM) Volumes(_ context.Context, f lvm.Filter) ([]lvm.ReportGroup, error) {
	var out []lvm.ReportGroup
	for _, g := range m.groups {
		if f.VG != "" && f.VG != g.VG.Name {
			continue
		}
		if f.VGInclude != nil && !f.VGInclude.MatchString(g.VG.Name) {
			continue
		}
		filtered := lvm.ReportGroup{VG: g.VG}
		for _, lv := range g.LVs {
			if f.LV != "" && f.LV != lv.Name {
				continue
			}
			filtered.LVs = append(filtered.LVs, lv)
		}
		if len(filtered.LVs) == 0 && f.OmitEmpty {
			continue
		}
		out = append(out, filtered)
	}
	return out, nil
}

func (m *mockVM) CaptureSpaceState(_ context.Context) (lvm.SpaceState, error) {
	return m.state, nil
}

func (m *mockVM) MountPoints(_ context.Context, target string) ([]lvm.MountRecord, error) {
	return m.mounts[target], nil
}

func (m *mockVM) CreateSnapshot(_ context.Context, vgName, lvName, snapshotName string, size uint64) (string, error) {
	if err := m.failOn["create"]; err != nil {
		return "", err
	}
	m.created = append(m.created, fmt.Sprintf("%s/%s<-%s:%d", vgName, snapshotName, lvName, size))
	m.addLV(vgName, snapshotName, "swi-a-s---", size)
	return "", nil
}

func (m *mockVM) ExtendLV(_ context.Context, vgName, lvName string, size uint64) (string, error) {
	if err := m.failOn["extend"]; err != nil {
		return "", err
	}
	m.extended = append(m.extended, fmt.Sprintf("%s/%s:%d", vgName, lvName, size))
	return "", nil
}

func (m *mockVM) MergeRevert(_ context.Context, vgName, snapshotName string) (string, error) {
	if err := m.failOn["merge"]; err != nil {
		return "", err
	}
	m.merged = append(m.merged, vgName+"/"+snapshotName)
	delete(m.lvs, vgName+"/"+snapshotName)
	return "", nil
}

func (m *mockVM) RemoveLV(_ context.Context, vgName, lvName string) (string, error) {
	if err := m.failOn["remove"]; err != nil {
		return "", err
	}
	m.removed = append(m.removed, vgName+"/"+lvName)
	delete(m.lvs, vgName+"/"+lvName)
	return "", nil
}

// mockMounter records mount and unmount calls. mounted holds
// "device mountpoint" pairs considered already in place.
type mockMounter struct {
	mounted   map[string]bool
	failMount bool

	mountCalls   []string
	unmountCalls []string
}

func newMockMounter() *mockMounter {
	return &mockMounter{mounted: make(map[string]bool)}
}

func (m *mockMounter) Mount(_ context.Context, device, mountpoint, fstype, options string, create bool) (mount.State, string) {
	if m.failMount {
		return mount.StateFailed, fmt.Sprintf("mount failed for %s on %s", device, mountpoint)
	}
	key := device + " " + mountpoint
	if m.mounted[key] {
		return mount.StateAlreadyDone, ""
	}
	m.mounted[key] = true
	m.mountCalls = append(m.mountCalls, strings.TrimSpace(key+" "+fstype+" "+options))
	return mount.StateChanged, ""
}

func (m *mockMounter) Unmount(_ context.Context, target string, allTargets bool) (mount.State, string) {
	var hit bool
	for key := range m.mounted {
		if strings.HasSuffix(key, " "+target) {
			delete(m.mounted, key)
			hit = true
		}
	}
	if !hit {
		return mount.StateAlreadyDone, ""
	}
	m.unmountCalls = append(m.unmountCalls, target)
	return mount.StateChanged, ""
}

// testSet is a two volume set against a single group.
func testSet() *config.SnapshotSet {
	return &config.SnapshotSet{
		Name: "nightly",
		Volumes: []config.VolumeSpec{
			{VG: "vg00", LV: "data", PercentSpaceRequired: 20},
			{VG: "vg00", LV: "logs", PercentSpaceRequired: 20},
		},
	}
}

const (
	mib = 1024 * 1024
	gib = 1024 * mib
)

// testVM builds a mock with vg00 holding data and logs origins.
func testVM() *mockVM {
	vm := newMockVM()
	vm.addVG("vg00", 50*gib, 4*mib)
	vm.addLV("vg00", "data", "-wi-ao----", 10*gib)
	vm.addLV("vg00", "logs", "-wi-ao----", 8*gib)
	return vm
}

func newTestOrchestrator(vm *mockVM, mnt *mockMounter, dryRun bool) *Orchestrator {
	if mnt == nil {
		mnt = newMockMounter()
	}
	return New(vm, mnt, testLogger(), dryRun)
}
