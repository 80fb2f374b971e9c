package main

import (
	"github.com/spf13/cobra"

	"github.com/jbweber/snapset/internal/snapset"
)

func init() {
	listCmd.Flags().StringVar(&vgName, "vg", "", "limit the listing to one volume group")
	listCmd.Flags().StringVar(&lvName, "lv", "", "limit the listing to one logical volume")
	listCmd.Flags().StringVar(&vgInclude, "vg-include", "", "limit the listing to volume groups matching a regexp")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List volumes and their mounts",
	Long: `List the logical volumes of every matched volume group together
with the current mounts of their block devices.

Output formats:
  -o table  Human-readable tables
  -o yaml   Full YAML report
  -o json   Full JSON report (default)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := discoveryFilter()
		if err != nil {
			return err
		}
		// list shows empty volume groups too
		f.OmitEmpty = false

		orch := newOrchestrator()
		data, res, err := orch.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		return reportResult(snapset.OpList, res, data)
	},
}
