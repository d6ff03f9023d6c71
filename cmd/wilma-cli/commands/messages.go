package commands

import (
	"os"
	"wilma-backend/internal/scrapers/wilma"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var unreadOnly bool

func init() {
	messagesCmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only print unread messages.")
	rootCmd.AddCommand(messagesCmd)
}

func renderMessages(messages []wilma.Message) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"", "Id", "Subject", "Sender", "Sent"})
	for _, msg := range messages {
		status := ""
		if msg.IsUnread {
			status = "*"
		}
		t.AppendRow(table.Row{status, msg.Id, msg.Subject, msg.Sender, msg.SentAt})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var messagesCmd = &cobra.Command{
	Use:   "messages [--unread]",
	Short: "Prints the messages in the inbox.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, _, err := signIn(cmd.Context())
		if err != nil {
			return err
		}
		messages, err := client.GetMessages(cmd.Context(), session)
		if err != nil {
			return err
		}

		if unreadOnly {
			filtered := []wilma.Message{}
			for _, msg := range messages {
				if msg.IsUnread {
					filtered = append(filtered, msg)
				}
			}
			messages = filtered
		}
		renderMessages(messages)
		return nil
	},
}
