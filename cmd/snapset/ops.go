package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/snapset"
)

func init() {
	addVerifyFlag(checkCmd, extendCmd, revertCmd, removeCmd, mountCmd, umountCmd)
	addDiscoveryFlags(snapshotCmd, checkCmd, extendCmd, revertCmd, removeCmd)
}

// resolveSet produces the snapshot set a command operates on: loaded
// from the config file argument, or discovered from the live inventory
// when discovery flags are given.
func resolveSet(cmd *cobra.Command, args []string, needPercent bool) (*config.SnapshotSet, *snapset.Orchestrator, error) {
	orch := newOrchestrator()

	if !discoveryRequested() {
		set, err := loadConfigSet(args)
		if err != nil {
			return nil, nil, err
		}
		return set, orch, nil
	}

	if setName == "" {
		return nil, nil, fmt.Errorf("--name is required with discovery flags")
	}
	if needPercent && percent <= 1 {
		return nil, nil, fmt.Errorf("--percent must be greater than 1 with discovery flags")
	}

	f, err := discoveryFilter()
	if err != nil {
		return nil, nil, err
	}

	set, res, err := orch.DiscoverSet(cmd.Context(), f, setName, config.VolumeSpec{PercentSpaceRequired: percent})
	if err != nil {
		return nil, nil, err
	}
	if !res.OK() {
		return nil, nil, fmt.Errorf("%s: %s", res.Status, res.Message)
	}
	if len(set.Volumes) == 0 {
		return nil, nil, fmt.Errorf("no volumes matched the discovery filter")
	}
	return set, orch, nil
}

// runSetOp dispatches one operation over a resolved set and reports
// the outcome.
func runSetOp(cmd *cobra.Command, args []string, op snapset.Operation, verify, needPercent bool) error {
	set, orch, err := resolveSet(cmd, args, needPercent)
	if err != nil {
		return err
	}

	res, err := orch.Run(cmd.Context(), op, set, verify)
	if err != nil {
		return err
	}
	return reportResult(op, res, nil)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [config.yaml]",
	Short: "Create the snapshots of a set",
	Long: `Create every snapshot of a set, sized as a percentage of each
source volume. Space for the whole set is verified against a single
inventory capture before anything is created, so a set either fits or
nothing is made. Members that already exist as snapshots are left in
place, which completes a partially created set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetOp(cmd, args, snapset.OpSnapshot, false, true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [config.yaml]",
	Short: "Check that the snapshots of a set could be (or were) created",
	Long: `Without --verify-only, run every precondition of snapshot creation
(sources exist, names are free and legal, space suffices) without
creating anything. With --verify-only, assert that a prior snapshot run
completed: every member exists and is a snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoveryRequested() && verifyOnly {
			f, err := discoveryFilter()
			if err != nil {
				return err
			}
			if setName == "" {
				return fmt.Errorf("--name is required with discovery flags")
			}
			orch := newOrchestrator()
			res, err := orch.CheckVerifyAll(cmd.Context(), f, setName, allVGs)
			if err != nil {
				return err
			}
			return reportResult(snapset.OpCheck, res, nil)
		}
		return runSetOp(cmd, args, snapset.OpCheck, verifyOnly, true)
	},
}

var extendCmd = &cobra.Command{
	Use:   "extend [config.yaml]",
	Short: "Grow the snapshots of a set to their required size",
	Long: `Grow every snapshot of a set to the capacity its percentage
currently requires. Snapshots that are already large enough are left
alone. With --verify-only, assert instead that every snapshot is at
least as large as required.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetOp(cmd, args, snapset.OpExtend, verifyOnly, true)
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert [config.yaml]",
	Short: "Merge the snapshots of a set back into their origins",
	Long: `Start a merge of every snapshot back into its origin volume. The
merge completes asynchronously; origins that are in use merge on the
next activation. A snapshot that no longer exists counts as already
reverted. With --verify-only, assert that no snapshot of the set
remains.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoveryRequested() && verifyOnly {
			return removeVerifyDiscovered(cmd)
		}
		return runSetOp(cmd, args, snapset.OpRevert, verifyOnly, false)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [config.yaml]",
	Short: "Remove the snapshots of a set",
	Long: `Remove every snapshot of a set. The whole set is checked for busy
snapshots first, so an in-use member aborts with nothing removed.
Missing members count as already removed. With --verify-only, assert
that no snapshot of the set remains.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if discoveryRequested() && verifyOnly {
			return removeVerifyDiscovered(cmd)
		}
		return runSetOp(cmd, args, snapset.OpRemove, verifyOnly, false)
	},
}

// removeVerifyDiscovered verifies removal across everything the
// discovery filter matches. Revert shares it: both operations converge
// to "snapshot no longer exists".
func removeVerifyDiscovered(cmd *cobra.Command) error {
	if setName == "" {
		return fmt.Errorf("--name is required with discovery flags")
	}
	f, err := discoveryFilter()
	if err != nil {
		return err
	}
	orch := newOrchestrator()
	res, err := orch.RemoveVerifyAll(cmd.Context(), f, setName)
	if err != nil {
		return err
	}
	return reportResult(snapset.OpRemove, res, nil)
}

var mountCmd = &cobra.Command{
	Use:   "mount <config.yaml>",
	Short: "Mount the snapshots of a set",
	Long: `Mount every volume of a set on its configured mountpoint: the
snapshot by default, the origin volume with mount_origin, or an
explicit block device. Members already mounted where requested count
as done. With --verify-only, assert every member is mounted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetOp(cmd, args, snapset.OpMount, verifyOnly, false)
	},
}

var umountCmd = &cobra.Command{
	Use:   "umount <config.yaml>",
	Short: "Unmount the snapshots of a set",
	Long: `Unmount every volume of a set from its configured mountpoint.
Members that are not mounted count as done. With --verify-only, assert
no member is mounted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetOp(cmd, args, snapset.OpUmount, verifyOnly, false)
	},
}
