package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"routine-tracker/internal/routine"
)

func newTodayCmd(load loader) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the tasks of today or of --date",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(load)
			if err != nil {
				return err
			}
			defer a.Close()

			if date == "" {
				date = a.planner.Today(time.Now())
			}
			tasks, err := a.planner.DayTasks(cmd.Context(), date)
			if err != nil {
				return err
			}
			cats, err := a.categories.List(cmd.Context())
			if err != nil {
				return err
			}
			printDay(cmd.OutOrStdout(), date, tasks, cats)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD")
	return cmd
}

func newToggleCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <date> <template|oneoff> <id>",
		Short: "Flip completion of one task on one date",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := routine.ParseSourceKind(args[1])
			if err != nil {
				return err
			}
			a, err := openApp(load)
			if err != nil {
				return err
			}
			defer a.Close()

			done, err := a.planner.Toggle(cmd.Context(), args[0], kind, args[2])
			if err != nil {
				return err
			}
			state := "open"
			if done {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", routine.MakeCompletionKey(args[0], kind, args[2]), state)
			return nil
		},
	}
}

func newStreakCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Print the number of fully completed days in a row",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(load)
			if err != nil {
				return err
			}
			defer a.Close()

			streak, err := a.planner.Streak(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), streak)
			return nil
		},
	}
}

func newStatsCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print completion of the last seven days",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(load)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.planner.Stats(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, day := range stats.Days {
				fmt.Fprintf(out, "%s %s %d/%d\n", day.Date, day.Weekday.String()[:3], day.Completed, day.Total)
			}
			fmt.Fprintf(out, "average %d%%\n", stats.AverageRate)
			return nil
		},
	}
}

func printDay(w io.Writer, date string, tasks []routine.DayTask, cats map[string]routine.CategoryConfig) {
	fmt.Fprintln(w, date)
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  nothing planned")
		return
	}
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		label := routine.LookupCategory(cats, t.Category).Label
		fmt.Fprintf(w, "  %s %s %s (%s) %s\n", mark, t.TimeRange(), t.Title, label, t.Key())
	}
}
