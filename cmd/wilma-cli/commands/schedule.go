package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func formatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Prints this week's schedule.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, session, _, err := signIn(cmd.Context())
		if err != nil {
			return err
		}
		schedule, err := client.GetSchedule(cmd.Context(), session)
		if err != nil {
			return err
		}

		byDay := schedule.EventsByDay()
		days := make([]int, 0, len(byDay))
		for day := range byDay {
			days = append(days, day)
		}
		sort.Ints(days)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Day", "Date", "Time", "Course", "Teacher", "Room"})
		for _, day := range days {
			for _, event := range byDay[day] {
				t.AppendRow(table.Row{
					day + 1,
					event.Date,
					fmt.Sprintf("%s-%s", formatMinutes(event.Start), formatMinutes(event.End)),
					event.Title(),
					event.Teacher(),
					event.Room(),
				})
			}
			t.AppendSeparator()
		}
		t.SetCaption("%d days, %s-%s", schedule.DayCount(), formatMinutes(schedule.DayStarts()), formatMinutes(schedule.DayEnds()))
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
