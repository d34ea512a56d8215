package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	planSelect []string
	planPreset string
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringSliceVar(&planSelect, "select", nil, "Action names to select (overrides the rule set selector)")
	planCmd.Flags().StringVar(&planPreset, "preset", "", "Preset to select")
	planCmd.MarkFlagsMutuallyExclusive("select", "preset")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the actions a selector would run, highest bit first",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, _ []string) error {
	_, _, eng, logger, err := loadRules()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer eng.close()

	ran, err := eng.plan(selection{names: planSelect, preset: planPreset})
	if err != nil {
		return err
	}
	if len(ran) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no actions)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ran, "\n"))
	return nil
}
