package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Signs in and prints the identity of the account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, session, _, err := signIn(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendRows([]table.Row{
			{"Portal", session.BaseUrl()},
			{"Username", session.Username},
			{"Name", session.DisplayName},
			{"School", session.SchoolName},
			{"Student ID", session.StudentID},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
