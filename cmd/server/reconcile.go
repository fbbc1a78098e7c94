package main

import (
	"github.com/spf13/cobra"

	"github.com/jo-hoe/goscore/internal/core"
)

func newReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Add catalog entries for files added to the image directory since initialization",
		Long: `Scan the image directory and add a catalog entry for every file that has none yet.
Existing entries are never removed, even if their files are gone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(opts)
			if err != nil {
				return err
			}
			coreService, err := core.NewCoreService(cmd.Context(), config)
			if err != nil {
				return err
			}
			defer coreService.Close()

			added, err := coreService.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, img := range added {
				printStatus(out, img.ID, "%s", img.Filename)
			}
			printSuccess(out, "%d images added to the catalog", len(added))
			return nil
		},
	}
}
