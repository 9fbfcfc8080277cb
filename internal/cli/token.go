package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage bearer tokens",
	}

	var userID string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			a, err := rc.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.store.IssueToken(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "User id the token authenticates as")

	cmd.AddCommand(issue)
	return cmd
}
