package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCanCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Args:         cobra.ExactArgs(1),
		Use:          "can ACTION",
		Short:        "Check whether the stored session may perform an action",
		Long:         "can looks the action code up in the navigation manifest of the session's primary role and exits non-zero when it is missing.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := global.open()
			if err != nil {
				return err
			}
			defer agent.Close()

			ok, err := agent.Can(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not permitted", args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "yes")
			return nil
		},
	}
}
