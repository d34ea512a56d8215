package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a rule set and report conflicting presets",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	rs, hash, eng, logger, err := loadRules()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer eng.close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s width=%d actions=%d\n", rs.Name, hash, rs.EffectiveWidth(), len(rs.Actions))

	if _, err := eng.plan(selection{}); err != nil {
		return fmt.Errorf("default selector: %w", err)
	}

	bad := eng.conflicting()
	for _, name := range bad {
		fmt.Fprintf(out, "preset %s: conflict detected\n", name)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d conflicting preset(s)", len(bad))
	}
	fmt.Fprintln(out, "ok")
	return nil
}
