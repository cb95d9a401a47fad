package models

import (
	"time"
)

// StatVote is one (statKind, subjectUser, voterUser) triple in a game's
// stat set
type StatVote struct {
	// Stat is the stat kind, e.g. "scrub" or "fifa.win"
	Stat string

	// User is the subject of the vote
	User string

	// Voter is the player who cast the vote
	Voter string
}

// HistoricGame mirrors a Game at creation time and outlives it. It is keyed
// by the announcement message and holds the stat votes cast against it.
type HistoricGame struct {
	// MessageID is the announcement message ID, the game's external key
	MessageID string

	// ChannelID is the channel the game was scheduled from
	ChannelID string

	// Category is the scheduling pool the game belonged to
	Category string

	// Players is kept in sync with the live roster while the game is active
	Players []string

	// Mode is the optional game mode
	Mode string

	// Stats is the vote set, insertion-ordered, deduplicated
	Stats []StatVote

	// CreatedAt is when the game was announced, used for year filtering
	CreatedAt time.Time
}

// HasPlayer reports whether the user was on the roster
func (h *HistoricGame) HasPlayer(user string) bool {
	for _, p := range h.Players {
		if p == user {
			return true
		}
	}
	return false
}

// AddStat records a vote, reporting false if the identical triple is
// already present
func (h *HistoricGame) AddStat(stat, user, voter string) bool {
	for _, s := range h.Stats {
		if s.Stat == stat && s.User == user && s.Voter == voter {
			return false
		}
	}

	h.Stats = append(h.Stats, StatVote{Stat: stat, User: user, Voter: voter})
	return true
}

// RemoveStat removes a vote, reporting whether it was present
func (h *HistoricGame) RemoveStat(stat, user, voter string) bool {
	for i, s := range h.Stats {
		if s.Stat == stat && s.User == user && s.Voter == voter {
			h.Stats = append(h.Stats[:i], h.Stats[i+1:]...)
			return true
		}
	}
	return false
}
