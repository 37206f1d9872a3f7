package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goodtune/gameshelf/internal/collection"
	"github.com/goodtune/gameshelf/internal/game"
)

var (
	playDate    string
	playScore   float64
	playWon     bool
	playLost    bool
	playSession string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Record or remove plays",
}

var playAddCmd = &cobra.Command{
	Use:   "add GAME_ID",
	Short: "Record a play",
	Example: `  gameshelf play add 6f1c... --score 87 --won
  gameshelf play add 6f1c... --date 2024-03-02`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayAdd,
}

var playRemoveCmd = &cobra.Command{
	Use:   "remove GAME_ID",
	Short: "Remove one play from a day",
	Long: `Remove one play from a day. When the day holds sessions with different
scores or outcomes, name the one to drop with --session.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayRemove,
}

func init() {
	playAddCmd.Flags().StringVar(&playDate, "date", "", "Day of the play as YYYY-MM-DD (defaults to today)")
	playAddCmd.Flags().Float64Var(&playScore, "score", 0, "Score, kept when the game tracks scores")
	playAddCmd.Flags().BoolVar(&playWon, "won", false, "Mark the play as won")
	playAddCmd.Flags().BoolVar(&playLost, "lost", false, "Mark the play as lost")
	playAddCmd.MarkFlagsMutuallyExclusive("won", "lost")

	playRemoveCmd.Flags().StringVar(&playDate, "date", "", "Day to remove from as YYYY-MM-DD (defaults to today)")
	playRemoveCmd.Flags().StringVar(&playSession, "session", "", "Session to remove when the day is ambiguous")

	playCmd.AddCommand(playAddCmd, playRemoveCmd)
	rootCmd.AddCommand(playCmd)
}

func runPlayAdd(cmd *cobra.Command, args []string) error {
	req := collection.PlayRequest{Day: playDate}
	if cmd.Flags().Changed("score") {
		req.Score = &playScore
	}
	if playWon || playLost {
		won := playWon
		req.Won = &won
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

	g, _, err := a.svc.RecordPlay(ctx, owner, args[0], req)
	if err != nil {
		return err
	}

	day := playDate
	if day == "" {
		day = a.svc.Today()
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d plays on %s, %d in total\n", g.Name, g.PlayHistory[day], day, g.Plays)
	return nil
}

func runPlayRemove(cmd *cobra.Command, args []string) error {
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

	g, removal, err := a.svc.RemovePlay(ctx, owner, args[0], playDate, playSession)
	var ambiguous *game.AmbiguousRemovalError
	if errors.As(err, &ambiguous) {
		printCandidates(cmd.ErrOrStderr(), ambiguous)
		return err
	}
	if err != nil {
		return err
	}

	day := playDate
	if day == "" {
		day = a.svc.Today()
	}
	if !removal.Removed {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: no plays on %s, nothing removed\n", g.Name, day)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d plays on %s, %d in total\n", g.Name, g.PlayHistory[day], day, g.Plays)
	return nil
}

func printCandidates(w io.Writer, err *game.AmbiguousRemovalError) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "Several different sessions on %s, pick one with --session:\n", err.Day)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SESSION\tRECORDED\tSCORE\tRESULT")
	for _, s := range err.Candidates {
		score, result := "-", "-"
		if s.Score != nil {
			score = fmt.Sprintf("%g", *s.Score)
		}
		if s.Won != nil {
			result = "lost"
			if *s.Won {
				result = "won"
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Timestamp.Format("15:04"), score, result)
	}
	_ = tw.Flush()
}
