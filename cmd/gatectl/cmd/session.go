package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gatectl"
	"github.com/spf13/cobra"
)

func newRefreshCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Args:         cobra.NoArgs,
		Use:          "refresh",
		Short:        "Exchange the stored refresh credential once",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := global.open()
			if err != nil {
				return err
			}
			defer agent.Close()

			res, err := agent.Refresh(cmd.Context())
			if err == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "access credential refreshed")
				return nil
			}
			if res.Outcome == service.RefreshPermanent {
				return fmt.Errorf("session ended, run gatectl login: %w", err)
			}
			return err
		},
	}
}

type watchFlags struct {
	interval time.Duration
	horizon  time.Duration
}

func newWatchCommand(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Args:         cobra.NoArgs,
		Use:          "watch",
		Short:        "Keep the stored session alive until interrupted",
		SilenceUsage: true,
	}
	flags := &watchFlags{}

	f := cmd.Flags()
	f.DurationVar(&flags.interval, "interval", service.DefaultKeepAliveInterval, "How often the credential is checked")
	f.DurationVar(&flags.horizon, "horizon", 0, "Refresh when the credential expires within this window (default 5m)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		agent, err := global.open()
		if err != nil {
			return err
		}
		defer agent.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err = agent.Watch(ctx, gatectl.WatchOptions{Interval: flags.interval, Horizon: flags.horizon})
		if errors.Is(err, gatectl.ErrKeepAliveStopped) {
			return fmt.Errorf("%w (profile %q)", err, global.profile)
		}
		return err
	}

	return cmd
}

func newLogoutCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Args:         cobra.NoArgs,
		Use:          "logout",
		Short:        "Forget the stored credentials and end the identity provider session",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := global.open()
			if err != nil {
				return err
			}
			defer agent.Close()

			agent.Logout(cmd.Context())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged out of profile %q\n", global.profile)
			return nil
		},
	}
}

func newProfilesCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Args:         cobra.NoArgs,
		Use:          "profiles",
		Short:        "List profiles holding a live credential",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := global.open()
			if err != nil {
				return err
			}
			defer agent.Close()

			profiles, err := agent.Profiles(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range profiles {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
