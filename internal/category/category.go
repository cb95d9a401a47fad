package category

import (
	"fmt"
	"strings"
)

// Stat kinds. A stat kind is either positive (counts toward game wins) or
// negative (a scrub vote, dampening rating gains).
const (
	StatScrub = "scrub"

	StatTowerfallHeadhunters     = "towerfall.headhunters"
	StatTowerfallLastManStanding = "towerfall.lastmanstanding"
	StatTowerfallTeams           = "towerfall.teams"

	StatFifaWin     = "fifa.win"
	StatFifaWinPens = "fifa.win_pens"
)

// NumberEmojis maps roster positions 1-6 to their reaction emoji
var NumberEmojis = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣"}

// JoinEmojis toggle roster membership when reacted onto an announcement
var JoinEmojis = []string{"👍", "➕"}

var prettyStats = map[string]string{
	StatScrub:                    "Scrub",
	StatTowerfallHeadhunters:     "Headhunters",
	StatTowerfallLastManStanding: "Survival",
	StatTowerfallTeams:           "Teams",
	StatFifaWin:                  "Win",
	StatFifaWinPens:              "Pens",
}

// PrettyStat renders a stat kind for table headers
func PrettyStat(stat string) string {
	if p, ok := prettyStats[stat]; ok {
		return p
	}
	return stat
}

// NegativeStats is the set of stat kinds that count against a player
func NegativeStats() []string {
	return []string{StatScrub}
}

// Category is a named scheduling pool. Games in different categories never
// conflict, and each category carries its own defaults and stat vocabulary.
type Category struct {
	// Name identifies the pool, e.g. "default", "towerfall", "tournament"
	Name string

	// DefaultMaxPlayers is the roster capacity unless overridden
	DefaultMaxPlayers int

	// DefaultPlayTime is the session duration in minutes unless overridden
	DefaultPlayTime int

	// ForceTwoPlayer caps games at 2 players with a short duration,
	// regardless of keywords (tournament play)
	ForceTwoPlayer bool

	// LimitSingleWin counts at most one positive stat per user per game
	LimitSingleWin bool

	// ScrubVoting enables numbered-emoji scrub votes on finished games
	ScrubVoting bool

	// statEmojis maps reaction emoji to the stat kind they record
	statEmojis map[string]string

	// voteLines describe the category's stat emoji in the voting prompt
	voteLines []string
}

var (
	defaultCategory = &Category{
		Name:              "default",
		DefaultMaxPlayers: 4,
		DefaultPlayTime:   25,
	}

	towerfall = &Category{
		Name:              "towerfall",
		DefaultMaxPlayers: 4,
		DefaultPlayTime:   25,
		ScrubVoting:       true,
		statEmojis: map[string]string{
			"☠️": StatTowerfallHeadhunters,
			"⚔️": StatTowerfallHeadhunters,
			"💣":  StatTowerfallLastManStanding,
			"✌️": StatTowerfallTeams,
			"🤝":  StatTowerfallTeams,
		},
		voteLines: []string{
			"  Headhunters winner (☠️)",
			"  Last man standing (💣)",
			"  Team deathmatch (✌️)",
		},
	}

	fifa = &Category{
		Name:              "fifa",
		DefaultMaxPlayers: 4,
		DefaultPlayTime:   25,
		LimitSingleWin:    true,
		ScrubVoting:       true,
		statEmojis: map[string]string{
			"⚽": StatFifaWin,
			"🥅": StatFifaWinPens,
		},
		voteLines: []string{
			"  Winner (⚽)",
			"  Winner on penalties (🥅)",
		},
	}

	tournament = &Category{
		Name:              "tournament",
		DefaultMaxPlayers: 2,
		DefaultPlayTime:   10,
		ForceTwoPlayer:    true,
	}
)

// FromChannel derives a category from a channel name. Unknown channels fall
// into the default pool.
func FromChannel(channel string) *Category {
	name := strings.ToLower(channel)
	switch {
	case strings.Contains(name, "tournament"):
		return tournament
	case strings.Contains(name, "towerfall"), strings.Contains(name, "_test"):
		return towerfall
	case strings.Contains(name, "fifa"):
		return fifa
	default:
		return defaultCategory
	}
}

// ByName looks a category up by its name
func ByName(name string) *Category {
	switch name {
	case towerfall.Name:
		return towerfall
	case fifa.Name:
		return fifa
	case tournament.Name:
		return tournament
	default:
		return defaultCategory
	}
}

// StatForEmoji maps a reaction emoji to the stat kind it records
func (c *Category) StatForEmoji(emoji string) (string, bool) {
	stat, ok := c.statEmojis[emoji]
	return stat, ok
}

// HasStats reports whether finished games in this category prompt for votes
func (c *Category) HasStats() bool {
	return c.ScrubVoting || len(c.statEmojis) > 0
}

// VotePrompt renders the ranking prompt appended to a finished game's
// announcement. Returns "" when the category defines no stats.
func (c *Category) VotePrompt(players []string) string {
	if !c.HasStats() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Game open for ranking:\n")

	if c.ScrubVoting {
		entries := make([]string, 0, len(players))
		for i, p := range players {
			if i >= len(NumberEmojis) {
				break
			}
			entries = append(entries, fmt.Sprintf("%s <@%s>", NumberEmojis[i], p))
		}
		fmt.Fprintf(&b, "  Scrub of the match: %s\n", strings.Join(entries, ", "))
	}

	for _, line := range c.voteLines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
