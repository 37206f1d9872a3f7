package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goodtune/gameshelf/internal/stats"
)

var statsLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show play statistics",
}

var statsMonthCmd = &cobra.Command{
	Use:   "month [YYYY-MM]",
	Short: "Monthly leaders, champion and daily tracker",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatsMonth,
}

var statsAllTimeCmd = &cobra.Command{
	Use:   "all-time",
	Short: "All-time ranking by total plays",
	Args:  cobra.NoArgs,
	RunE:  runStatsAllTime,
}

func init() {
	statsAllTimeCmd.Flags().IntVar(&statsLimit, "limit", 0, "Show at most this many games (0 for all)")

	statsCmd.AddCommand(statsMonthCmd, statsAllTimeCmd)
	rootCmd.AddCommand(statsCmd)
}

var podiumColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgWhite, color.Bold),
	color.New(color.FgRed),
}

// heat shades for tracker levels 1 to stats.MaxHeatLevel
var heatColors = []*color.Color{
	color.New(color.FgGreen),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgYellow),
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgRed, color.Bold),
}

func runStatsMonth(cmd *cobra.Command, args []string) error {
	month := ""
	if len(args) == 1 {
		month = args[0]
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	owner, err := a.owner(ctx, collectionUser)
	if err != nil {
		return err
	}

	report, err := a.svc.MonthStats(ctx, owner, month)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = color.New(color.Bold).Fprintf(out, "%s: %d plays\n", report.Month, report.Total)
	if report.Champion != nil {
		_, _ = fmt.Fprintf(out, "Champion: %s (%d plays)\n", report.Champion.Game.Name, report.Champion.Value)
	}

	_, _ = fmt.Fprintln(out)
	printPodium(out, report.Podium, report.Rest)

	_, _ = fmt.Fprintln(out)
	printTracker(out, report.Tracker)
	return nil
}

func runStatsAllTime(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	owner, err := a.owner(ctx, collectionUser)
	if err != nil {
		return err
	}

	report, err := a.svc.AllTimeStats(ctx, owner, statsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = color.New(color.Bold).Fprintf(out, "All time: %d plays\n\n", report.Total)
	printPodium(out, report.Podium, report.Rest)
	return nil
}

func printPodium(w io.Writer, podium, rest []stats.Ranked) {
	if len(podium) == 0 {
		_, _ = fmt.Fprintln(w, "No plays recorded.")
		return
	}

	// Colour escapes would throw tabwriter columns off, so pad by hand.
	width := 0
	for _, r := range append(append([]stats.Ranked{}, podium...), rest...) {
		width = max(width, utf8.RuneCountInString(r.Game.Name))
	}

	for i, r := range podium {
		_, _ = podiumColors[i].Fprintf(w, "#%-3d %-*s %d\n", r.Rank, width, r.Game.Name, r.Value)
	}
	for _, r := range rest {
		_, _ = fmt.Fprintf(w, "#%-3d %-*s %d\n", r.Rank, width, r.Game.Name, r.Value)
	}
}

// printTracker draws the month as a calendar strip, one block per day.
func printTracker(w io.Writer, cells []stats.DayCell) {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 && i%7 == 0 {
			b.WriteString("\n")
		}
		day := cell.Day[len(cell.Day)-2:]
		if cell.Level == 0 {
			b.WriteString(color.New(color.Faint).Sprintf("%s· ", day))
			continue
		}
		b.WriteString(heatColors[cell.Level-1].Sprintf("%s■ ", day))
	}
	_, _ = fmt.Fprintln(w, b.String())
}
