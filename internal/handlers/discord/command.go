package discord

// command is the tagged set of chat commands. Every inbound trigger
// message resolves to exactly one of these; anything unrecognized is
// treated as a possible scheduling request.
type command int

const (
	// cmdInitiate is the fallthrough: free text that may schedule a game
	cmdInitiate command = iota

	// cmdGames lists the channel's live games
	cmdGames

	// cmdScuttle reschedules a game ("scuttle [game] to <time>")
	cmdScuttle

	// cmdNar cancels a game ("nar [game]"), creator only
	cmdNar

	// cmdBail takes the user off a roster ("bail [game]")
	cmdBail

	// cmdStats prints the channel's summary tables
	cmdStats

	// cmdElo prints the channel's rating standings
	cmdElo

	// cmdMute stops stats tables from pinging the user
	cmdMute

	// cmdSound undoes cmdMute
	cmdSound

	// cmdThanks acknowledges politeness
	cmdThanks

	// cmdCredits names the authors
	cmdCredits
)

// commandWords maps first tokens to commands, aliases included
var commandWords = map[string]command{
	"games":    cmdGames,
	"scuttle":  cmdScuttle,
	"scoot":    cmdScuttle,
	"nar":      cmdNar,
	"nah":      cmdNar,
	"cancel":   cmdNar,
	"bail":     cmdBail,
	"flyout":   cmdBail,
	"stats":    cmdStats,
	"elo":      cmdElo,
	"topradge": cmdElo,
	"mute":     cmdMute,
	"sound":    cmdSound,
	"thanks":   cmdThanks,
	"ta":       cmdThanks,
	"cheers":   cmdThanks,
	"credits":  cmdCredits,
}

// commandName renders a command for metrics labels
func commandName(c command) string {
	switch c {
	case cmdGames:
		return "games"
	case cmdScuttle:
		return "scuttle"
	case cmdNar:
		return "nar"
	case cmdBail:
		return "bail"
	case cmdStats:
		return "stats"
	case cmdElo:
		return "elo"
	case cmdMute:
		return "mute"
	case cmdSound:
		return "sound"
	case cmdThanks:
		return "thanks"
	case cmdCredits:
		return "credits"
	default:
		return "initiate"
	}
}
