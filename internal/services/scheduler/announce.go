package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/models"
)

// followOnWindow is how soon after a game's end the next game must
// start for the kickoff notice to plug it
const followOnWindow = 5 * time.Minute

// announceText renders a game's announcement message
func announceText(g *models.Game) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** at **%s**", g.Description, models.WhenStr(g.When))
	if g.Mode != "" {
		fmt.Fprintf(&b, " (%s)", g.Mode)
	}
	fmt.Fprintf(&b, " — %d players max\n", g.MaxPlayers)

	if len(g.Players) > 0 {
		fmt.Fprintf(&b, "players: %s\n", g.PrettyPlayers(true))
	} else {
		b.WriteString("players: nobody yet\n")
	}

	fmt.Fprintf(&b, "react %s to join", category.JoinEmojis[0])

	return b.String()
}

// cancelledText annotates a cancelled game's announcement
func cancelledText(g *models.Game) string {
	return fmt.Sprintf("~~%s at %s~~ — scuttled by %s",
		g.Description, models.WhenStr(g.When), models.FormatUser(g.CreatorID))
}

// kickoffText is sent when a game goes active with players on board
func kickoffText(g *models.Game, next *models.Game) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s is starting", g.PrettyPlayers(true), g.Description)
	if next != nil {
		fmt.Fprintf(&b, "\nheads up: %s starts at %s, you might want that one too",
			next.Description, models.WhenStr(next.When))
	}

	return b.String()
}

// nobodyText is sent when a game goes active with an empty roster
func nobodyText(g *models.Game) string {
	return fmt.Sprintf("friendly reminder: %s at %s — nobody's coming",
		g.Description, models.WhenStr(g.When))
}
