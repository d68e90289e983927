package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/internal/gatectl"
	"github.com/spf13/cobra"
)

type statusFlags struct {
	outputFormat string // text or json
}

type statusOutput struct {
	Profile     string   `json:"profile"`
	Subject     string   `json:"sub"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	ExpiresAt   string   `json:"expires_at"`
	ExpiresIn   int64    `json:"expires_in"`
	Expired     bool     `json:"expired"`
	Refreshable bool     `json:"refreshable"`
}

func newStatusCommand(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Args:         cobra.NoArgs,
		Use:          "status",
		Short:        "Print the identity and expiry of the stored session",
		SilenceUsage: true,
	}
	flags := &statusFlags{}

	cmd.Flags().StringVarP(&flags.outputFormat, "output", "o", "text", "Output format (e.g., 'json', 'text')")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		agent, err := global.open()
		if err != nil {
			return err
		}
		defer agent.Close()

		st, err := agent.Status()
		if errors.Is(err, domain.ErrNoCredential) {
			return fmt.Errorf("not logged in to profile %q", global.profile)
		}
		if err != nil {
			return err
		}
		return writeStatus(cmd.OutOrStdout(), flags.outputFormat, st)
	}

	return cmd
}

func writeStatus(w io.Writer, format string, st gatectl.Status) error {
	out := statusOutput{
		Profile:     st.Profile,
		Subject:     st.Session.Subject,
		Username:    st.Session.Username,
		Email:       st.Session.Email,
		Name:        st.Session.Name,
		Roles:       st.Session.Roles,
		ExpiresAt:   st.Session.ExpiresAt.UTC().Format(time.RFC3339),
		ExpiresIn:   int64(st.TimeLeft.Seconds()),
		Expired:     st.Expired,
		Refreshable: st.HasRefresh,
	}
	if out.Roles == nil {
		out.Roles = []string{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "text":
		state := "valid for " + st.TimeLeft.Round(time.Second).String()
		if st.Expired {
			state = "expired"
		}
		_, err := fmt.Fprintf(w,
			"Profile:  %s\nUser:     %s <%s>\nSubject:  %s\nRoles:    %s\nExpires:  %s (%s)\nRefresh:  %t\n",
			out.Profile, out.Name, out.Email, out.Subject,
			strings.Join(out.Roles, ", "), out.ExpiresAt, state, out.Refreshable,
		)
		return err
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
}
