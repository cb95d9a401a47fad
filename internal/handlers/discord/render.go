package discord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/models"
	historySvc "github.com/scrubdub/hewbot/internal/services/history"
	"github.com/scrubdub/hewbot/internal/services/scheduler"
)

// renderGamesList renders the games listing, start order
func renderGamesList(games []*models.Game) string {
	if len(games) == 0 {
		return "nothing on the board"
	}

	lines := make([]string, 0, len(games))
	for _, game := range games {
		lines = append(lines, "• "+game.Pretty())
	}

	return strings.Join(lines, "\n")
}

// renderConflict explains why an initiation was refused
func renderConflict(conflict *models.Game) string {
	return fmt.Sprintf("that slot clashes with %s's %s at %s, pick another time",
		models.FormatUser(conflict.CreatorID), conflict.Description, models.WhenStr(conflict.When))
}

// renderAmbiguousTime asks the user to pick between competing times
func renderAmbiguousTime(specs []string) string {
	return fmt.Sprintf("not sure which time you mean (%s) — say it again with just one",
		strings.Join(specs, " / "))
}

// renderJoinOutcome narrates a join attempt
func renderJoinOutcome(out *scheduler.JoinOutput, user string) string {
	switch out.Outcome {
	case scheduler.JoinJoined:
		return fmt.Sprintf("%s is in for %s", models.FormatUser(user), out.Game.Description)
	case scheduler.JoinAlreadyIn:
		return fmt.Sprintf("%s, you're already in", models.FormatUser(user))
	case scheduler.JoinFull:
		return fmt.Sprintf("no room in %s, it's %d a side max",
			out.Game.Description, out.Game.MaxPlayers)
	default:
		return "that game is gone"
	}
}

// renderCancelOutcome narrates a cancel attempt
func renderCancelOutcome(out *scheduler.CancelOutput, user string) string {
	switch out.Outcome {
	case scheduler.CancelCancelled:
		return fmt.Sprintf(":candle: %s (%s) has been flown out by %s",
			out.Game.Description, models.WhenStr(out.Game.When), models.FormatUser(user))
	case scheduler.CancelNotCreator:
		return fmt.Sprintf("only %s can cancel %s",
			models.FormatUser(out.Game.CreatorID), out.Game.Description)
	default:
		return "that game's already gone"
	}
}

// renderRescheduleOutcome narrates a reschedule attempt
func renderRescheduleOutcome(out *scheduler.RescheduleOutput) string {
	switch out.Outcome {
	case scheduler.RescheduleMoved:
		return fmt.Sprintf("%s moved to %s", out.Game.Description, models.WhenStr(out.Game.When))
	case scheduler.RescheduleNoMatch:
		return "couldn't find that game"
	case scheduler.RescheduleAmbiguous:
		return fmt.Sprintf("which one? that matches %d games", out.Matches)
	case scheduler.RescheduleNotCreator:
		return "only the creator can move a game"
	case scheduler.RescheduleConflict:
		return renderConflict(out.Conflict)
	default:
		return "couldn't move that game"
	}
}

// renderStandings renders the rating table, best first
func renderStandings(out *historySvc.StandingsOutput) string {
	ranked := out.Standings.Ranked
	if len(ranked) == 0 {
		return "no rated games yet"
	}

	var b strings.Builder
	b.WriteString("```\n")
	for i, player := range ranked {
		fmt.Fprintf(&b, "%2d. %-24s %s (%d played)\n",
			i+1, player.ID, player.FormattedRating(out.MinGames), player.GamesPlayed)
	}
	b.WriteString("```")

	return b.String()
}

// renderStatsTables renders the per-mode summary tables. Muted users
// appear by bare name instead of a mention.
func renderStatsTables(out *historySvc.SummaryStatsOutput, muted map[string]bool) string {
	if len(out.Tables) == 0 {
		return "no games on record"
	}

	var b strings.Builder
	for i, table := range out.Tables {
		if i > 0 {
			b.WriteString("\n")
		}
		renderStatsTable(&b, table, muted)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderStatsTable(b *strings.Builder, table *historySvc.ModeTable, muted map[string]bool) {
	title := "Stats"
	if table.Mode != "" {
		title = fmt.Sprintf("Stats (%s)", table.Mode)
	}
	fmt.Fprintf(b, "**%s**\n", title)

	// Columns: the union of stat kinds seen in this table, stable order
	var stats []string
	seen := make(map[string]bool)
	for _, line := range table.Lines {
		for stat := range line.Counts {
			if !seen[stat] {
				seen[stat] = true
				stats = append(stats, stat)
			}
		}
	}
	sort.Strings(stats)

	for _, line := range table.Lines {
		name := models.FormatUser(line.User)
		if muted[line.User] {
			name = line.User
		}

		fmt.Fprintf(b, "%s — played %d, wins %d (%.0f%%)",
			name, line.Played, line.GameWins, line.WinRatio*100)

		for _, stat := range stats {
			if count := line.Counts[stat]; count > 0 {
				fmt.Fprintf(b, ", %s %d", category.PrettyStat(stat), count)
			}
		}

		if line.Rating != "" {
			fmt.Fprintf(b, ", rated %s", line.Rating)
			if len(line.RecentDeltas) > 0 {
				fmt.Fprintf(b, " [%s]", renderDeltas(line.RecentDeltas))
			}
		}

		b.WriteString("\n")
	}
}

// renderDeltas renders recent rating changes as "+9 -10 +8"
func renderDeltas(deltas []int) string {
	parts := make([]string, 0, len(deltas))
	for _, d := range deltas {
		parts = append(parts, fmt.Sprintf("%+d", d))
	}
	return strings.Join(parts, " ")
}

// renderUsage is the fallback when a message addressed to the bot
// matches nothing
func renderUsage(trigger string) string {
	lines := []string{
		"couldn't make sense of that. try:",
		fmt.Sprintf("`%s <description> at <time>`: schedule a game", trigger),
		fmt.Sprintf("`%s games`: what's on the board", trigger),
		fmt.Sprintf("`%s scuttle [game] to <time>`: move a game", trigger),
		fmt.Sprintf("`%s nar [game]`: cancel your game", trigger),
		fmt.Sprintf("`%s bail [game]`: back out of a game", trigger),
		fmt.Sprintf("`%s stats [year] [channel] [k=N] [h=N]`: the numbers", trigger),
		fmt.Sprintf("`%s elo [k=N]`: the pecking order", trigger),
		fmt.Sprintf("`%s mute` / `%s sound`: stats ping opt-out", trigger, trigger),
	}
	return strings.Join(lines, "\n")
}
