package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/seminar-digest/internal/ui/login"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Save the mail password and API key in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := login.Prompt(cmd.Context(), a.cfg.Mail.Address)
			if err != nil {
				return err
			}

			saved, err := login.Save(creds, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(saved) == 0 {
				printf(out, "Nothing entered; keyring unchanged.\n")
				return nil
			}
			printf(out, "Saved %s.\n", strings.Join(saved, ", "))
			return nil
		},
	}
}
