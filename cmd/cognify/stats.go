package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/chaosweasl/cognify/server/stats"
)

func addStats(topLevel *cobra.Command) {
	var summary bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show collection statistics",
		Example: `
cognify stats
cognify stats --summary
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			setupLogger(p)

			ctx := context.Background()
			st, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer st.Close()

			collector := stats.NewCollector(st, p.Owner)
			collector.Collect(ctx)
			s := collector.GetStats()

			if summary {
				fmt.Println(s.GetSummary())
				return nil
			}
			printCollectionStats(s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "print a plain-text summary instead of tables")

	topLevel.AddCommand(cmd)
}

func printCollectionStats(s *stats.Stats) {
	title := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	title.Println("Items")
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("total", s.TotalItems)
	tbl.AddRow("new", s.NewItems)
	tbl.AddRow("learning", s.LearningItems)
	tbl.AddRow("review", s.ReviewItems)
	tbl.AddRow("suspended", s.SuspendedItems)
	tbl.AddRow("leeches", s.LeechItems)
	fmt.Fprintln(color.Output, tbl)

	title.Println("\nDue")
	tbl = uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("now", s.DueNow)
	tbl.AddRow("today", s.DueToday)
	tbl.AddRow("this week", s.DueThisWeek)
	fmt.Fprintln(color.Output, tbl)

	title.Println("\nToday")
	tbl = uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("new graded", s.NewToday)
	tbl.AddRow("reviews done", s.ReviewsToday)
	fmt.Fprintln(color.Output, tbl)

	title.Println("\nActivity")
	tbl = uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("active days (30d)", s.ActiveDays)
	tbl.AddRow("streak", fmt.Sprintf("%d days", s.StreakDays))
	if s.LastActivityTime.IsZero() {
		tbl.AddRow("last study", "never")
	} else {
		tbl.AddRow("last study", s.LastActivityTime.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(color.Output, tbl)

	faint.Printf("\nupdated %s\n", s.LastUpdated.Format("2006-01-02 15:04"))
}
