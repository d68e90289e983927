package cmd

import (
	"fmt"

	"github.com/aussiebroadwan/portalgate/internal/gatectl"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

type loginDeps struct {
	openURL func(string) error
}

func realLoginDeps() loginDeps {
	return loginDeps{openURL: browser.OpenURL}
}

type loginFlags struct {
	listenAddr  string
	skipBrowser bool
}

func newLoginCommand(global *globalFlags, deps loginDeps) *cobra.Command {
	cmd := &cobra.Command{
		Args:         cobra.NoArgs,
		Use:          "login",
		Short:        "Log in through the browser and store the credentials",
		SilenceUsage: true,
	}
	flags := &loginFlags{}

	f := cmd.Flags()
	f.StringVar(&flags.listenAddr, "listen", gatectl.DefaultListenAddr, "Loopback address receiving the login callback")
	f.BoolVar(&flags.skipBrowser, "skip-browser", false, "Only print the login URL instead of opening a browser")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		agent, err := global.open()
		if err != nil {
			return err
		}
		defer agent.Close()

		opts := gatectl.LoginOptions{
			ListenAddr: flags.listenAddr,
			Out:        cmd.ErrOrStderr(),
		}
		if !flags.skipBrowser {
			opts.OpenURL = deps.openURL
		}

		sess, err := agent.Login(cmd.Context(), opts)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s) into profile %q\n", sess.Name, sess.Subject, global.profile)
		return nil
	}

	return cmd
}
