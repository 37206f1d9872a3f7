package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goodtune/gameshelf/internal/game"
	"github.com/goodtune/gameshelf/internal/stats"
)

var (
	collectionUser string

	gameSort          string
	gameImage         string
	gameReview        string
	gameRating        float64
	gamePlayers       string
	gamePlayTime      string
	gameTrackScore    bool
	gameTrackLowScore bool
	gameTrackWon      bool
)

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Manage the game collection",
}

var gameAddCmd = &cobra.Command{
	Use:     "add NAME",
	Short:   "Add a game",
	Example: `  gameshelf game add "Brass: Birmingham" --players 2-4 --time 60-120 --rating 9 --track-won`,
	Args:    cobra.ExactArgs(1),
	RunE:    runGameAdd,
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List games",
	Args:  cobra.NoArgs,
	RunE:  runGameList,
}

var gameShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a game with its statistics and badges",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameShow,
}

var gameDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a game and its play history",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameDelete,
}

func init() {
	for _, cmd := range []*cobra.Command{gameCmd, playCmd, statsCmd, exportCmd, importCmd} {
		cmd.PersistentFlags().StringVarP(&collectionUser, "user", "u", "", "Collection owner (defaults to auth.initial_username)")
	}

	gameAddCmd.Flags().StringVar(&gameImage, "image", "", "Image URL")
	gameAddCmd.Flags().StringVar(&gameReview, "review", "", "Free-text review")
	gameAddCmd.Flags().Float64Var(&gameRating, "rating", -1, "Rating from 0 to 10")
	gameAddCmd.Flags().StringVar(&gamePlayers, "players", "", "Player count, e.g. 2-4 or 3")
	gameAddCmd.Flags().StringVar(&gamePlayTime, "time", "", "Play time in minutes, e.g. 30-60")
	gameAddCmd.Flags().BoolVar(&gameTrackScore, "track-score", false, "Record scores and show the high score")
	gameAddCmd.Flags().BoolVar(&gameTrackLowScore, "track-low-score", false, "Record scores and show the low score")
	gameAddCmd.Flags().BoolVar(&gameTrackWon, "track-won", false, "Record wins and losses")

	gameListCmd.Flags().StringVar(&gameSort, "sort", stats.SortByName, "Sort by name, plays or rating")

	gameCmd.AddCommand(gameAddCmd, gameListCmd, gameShowCmd, gameDeleteCmd)
	rootCmd.AddCommand(gameCmd)
}

func runGameAdd(cmd *cobra.Command, args []string) error {
	details := game.Details{
		Name:   args[0],
		Image:  gameImage,
		Review: gameReview,
		Tracking: game.Tracking{
			Score:    gameTrackScore,
			LowScore: gameTrackLowScore,
			Won:      gameTrackWon,
		},
	}
	if cmd.Flags().Changed("rating") {
		details.Rating = &gameRating
	}

	var err error
	if details.Players, err = parseRange(gamePlayers); err != nil {
		return fmt.Errorf("--players: %w", err)
	}
	if details.PlayTime, err = parseRange(gamePlayTime); err != nil {
		return fmt.Errorf("--time: %w", err)
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

	g, err := a.svc.Create(ctx, owner, details)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", g.Name, g.ID)
	return nil
}

func runGameList(cmd *cobra.Command, args []string) error {
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

	games, err := a.svc.List(ctx, owner, gameSort)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPLAYS\tRATING\tPLAYERS\tTIME")
	for i := range games {
		g := &games[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			g.ID, g.Name, g.Plays, formatRating(g.Rating), formatRange(g.Players), formatRange(g.PlayTime))
	}
	return tw.Flush()
}

func runGameShow(cmd *cobra.Command, args []string) error {
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

	view, err := a.svc.GameDetail(ctx, owner, args[0])
	if err != nil {
		return err
	}

	g, st := view.Game, view.Stats
	out := cmd.OutOrStdout()
	_, _ = color.New(color.Bold).Fprintf(out, "%s\n", g.Name)
	_, _ = fmt.Fprintf(out, "  Rating:      %s\n", formatRating(g.Rating))
	_, _ = fmt.Fprintf(out, "  Players:     %s\n", formatRange(g.Players))
	_, _ = fmt.Fprintf(out, "  Play time:   %s\n", formatRange(g.PlayTime))
	_, _ = fmt.Fprintf(out, "  Plays:       %d (%d this month, rank #%d)\n", g.Plays, st.MonthPlays, st.Rank)
	if g.Tracking.Won {
		_, _ = fmt.Fprintf(out, "  Wins:        %d (%d%%)\n", st.Wins, st.WinRate)
	}
	if st.HighScore != nil {
		_, _ = fmt.Fprintf(out, "  High score:  %g\n", *st.HighScore)
	}
	if st.LowScore != nil {
		_, _ = fmt.Fprintf(out, "  Low score:   %g\n", *st.LowScore)
	}
	if g.Review != "" {
		_, _ = fmt.Fprintf(out, "  Review:      %s\n", g.Review)
	}
	if len(st.Badges) > 0 {
		labels := make([]string, 0, len(st.Badges))
		for _, b := range st.Badges {
			labels = append(labels, b.Label)
		}
		_, _ = color.New(color.FgYellow).Fprintf(out, "  Badges:      %s\n", strings.Join(labels, ", "))
	}
	return nil
}

func runGameDelete(cmd *cobra.Command, args []string) error {
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

	if err := a.svc.Delete(ctx, owner, args[0]); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

// parseRange reads "N" or "MIN-MAX"; either side of the dash may be empty.
func parseRange(s string) (*game.Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	lo, hi, found := strings.Cut(s, "-")
	if !found {
		hi = lo
	}

	var r game.Range
	for _, bound := range []struct {
		text string
		dst  **int
	}{{lo, &r.Min}, {hi, &r.Max}} {
		text := strings.TrimSpace(bound.text)
		if text == "" {
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q", s)
		}
		*bound.dst = &n
	}
	return &r, nil
}

func formatRange(r *game.Range) string {
	if r == nil || (r.Min == nil && r.Max == nil) {
		return "-"
	}
	switch {
	case r.Min != nil && r.Max != nil && *r.Min == *r.Max:
		return strconv.Itoa(*r.Min)
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%d-%d", *r.Min, *r.Max)
	case r.Min != nil:
		return fmt.Sprintf("%d+", *r.Min)
	default:
		return fmt.Sprintf("up to %d", *r.Max)
	}
}

func formatRating(r *float64) string {
	if r == nil {
		return "-"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}
