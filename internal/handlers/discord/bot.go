package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/scrubdub/hewbot/internal/category"
	"github.com/scrubdub/hewbot/internal/metrics"
	"github.com/scrubdub/hewbot/internal/models"
	"github.com/scrubdub/hewbot/internal/parse"
	playerRepo "github.com/scrubdub/hewbot/internal/repositories/player"
	historySvc "github.com/scrubdub/hewbot/internal/services/history"
	"github.com/scrubdub/hewbot/internal/services/scheduler"
)

const defaultTickInterval = time.Minute

// dialectWords are greeting fillers tolerated between the trigger and
// the command, e.g. "hew here games"
var dialectWords = map[string]bool{
	"here":  true,
	"hew":   true,
	"areet": true,
}

var bigGameRegexp = regexp.MustCompile(`(?i)\b(big|large|medium|huge|hueg|massive|micro|mini|biggest) game\b`)

// eventKind tags an inbound event
type eventKind int

const (
	evMessage eventKind = iota
	evReactionAdd
	evReactionRemove
)

// event is one unit of inbound work. Discord callbacks and the
// lifecycle ticker all funnel through one channel, so the engine only
// ever sees one event at a time.
type event struct {
	kind     eventKind
	message  *discordgo.MessageCreate
	reaction *discordgo.MessageReaction
}

// Config holds the configuration for the bot
type Config struct {
	// Session is the Discord connection, not yet opened
	Session *discordgo.Session

	// Trigger is the address word that precedes every command
	Trigger string

	// Scheduler owns the live game set
	Scheduler scheduler.Service

	// History is the game ledger
	History historySvc.Service

	// Players stores per-user options
	Players playerRepo.Repository

	// Metrics is optional; nil records nothing
	Metrics *metrics.Metrics

	// TickInterval drives lifecycle advancement; default one minute
	TickInterval time.Duration
}

// statsAnchor remembers the latest stats table posted for a channel so
// incoming votes can refresh it in place. postedIn is where the table
// message lives, which may differ from the channel it summarizes.
type statsAnchor struct {
	postedIn  string
	messageID string
	year      int
	params    map[string]int
}

// Bot wires Discord events into the scheduling engine
type Bot struct {
	config       *Config
	events       chan event
	done         chan struct{}
	channelNames map[string]string
	lastStats    map[string]*statsAnchor
}

// New creates a new Discord bot
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Session == nil {
		return nil, errors.New("session cannot be nil")
	}

	if cfg.Scheduler == nil {
		return nil, errors.New("scheduler service cannot be nil")
	}

	if cfg.History == nil {
		return nil, errors.New("history service cannot be nil")
	}

	if cfg.Trigger == "" {
		cfg.Trigger = "hew"
	}

	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaultTickInterval
	}

	bot := &Bot{
		config:       cfg,
		events:       make(chan event, 64),
		done:         make(chan struct{}),
		channelNames: make(map[string]string),
		lastStats:    make(map[string]*statsAnchor),
	}

	session := cfg.Session
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		bot.enqueue(event{kind: evMessage, message: m})
	})
	// edits re-run the handler, so a corrected typo still schedules
	session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Message == nil || m.Author == nil {
			return
		}
		bot.enqueue(event{kind: evMessage, message: &discordgo.MessageCreate{Message: m.Message}})
	})
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		bot.enqueue(event{kind: evReactionAdd, reaction: r.MessageReaction})
	})
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		bot.enqueue(event{kind: evReactionRemove, reaction: r.MessageReaction})
	})

	return bot, nil
}

// Start opens the Discord connection and runs the event loop until
// Stop is called or the context ends
func (b *Bot) Start(ctx context.Context) error {
	if err := b.config.Session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	go b.loop(ctx)

	log.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop shuts the event loop down and closes the Discord connection
func (b *Bot) Stop() error {
	close(b.done)
	return b.config.Session.Close()
}

// enqueue hands an event to the loop, dropping it if the bot is
// shutting down
func (b *Bot) enqueue(ev event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// loop serializes every inbound event and the periodic tick. Nothing
// else touches the engine, so the core needs no locking.
func (b *Bot) loop(ctx context.Context) {
	ticker := time.NewTicker(b.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-b.events:
			switch ev.kind {
			case evMessage:
				b.handleMessage(ctx, ev.message)
			case evReactionAdd:
				b.handleReaction(ctx, ev.reaction, true)
			case evReactionRemove:
				b.handleReaction(ctx, ev.reaction, false)
			}
		case <-ticker.C:
			if _, err := b.config.Scheduler.Tick(ctx, &scheduler.TickInput{}); err != nil {
				log.Printf("Tick failed: %v", err)
			}
		case <-b.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage routes one chat message. Only messages addressed to
// the trigger word are considered.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	fields := strings.Fields(m.Content)
	if len(fields) == 0 || !strings.EqualFold(fields[0], b.config.Trigger) {
		if match := bigGameRegexp.FindStringSubmatch(m.Content); match != nil {
			b.reply(m.ChannelID, fmt.Sprintf("... did someone mention a %s game?", strings.ToLower(match[1])))
		}
		return
	}

	// drop greeting filler: "hew here games" -> "hew games"
	for len(fields) > 1 && dialectWords[strings.ToLower(fields[1])] {
		fields = append(fields[:1], fields[2:]...)
	}

	rest := strings.Join(fields[1:], " ")
	if rest == "" {
		b.reply(m.ChannelID, b.config.Trigger)
		return
	}

	cmd := cmdInitiate
	var args string
	if c, ok := commandWords[strings.ToLower(fields[1])]; ok {
		cmd = c
		args = strings.Join(fields[2:], " ")
	}

	switch cmd {
	case cmdGames:
		b.handleGames(ctx, m.ChannelID)
	case cmdScuttle:
		b.handleScuttle(ctx, m.Author.ID, m.ChannelID, args)
	case cmdNar:
		b.handleCancel(ctx, m.Author.ID, m.ChannelID, args)
	case cmdBail:
		b.handleBail(ctx, m.Author.ID, m.ChannelID, args)
	case cmdStats:
		b.handleStats(ctx, m.ChannelID, args)
	case cmdElo:
		b.handleElo(ctx, m.ChannelID, args)
	case cmdMute:
		b.handleMute(ctx, m.Author.ID, m.ChannelID, true)
	case cmdSound:
		b.handleMute(ctx, m.Author.ID, m.ChannelID, false)
	case cmdThanks:
		b.reply(m.ChannelID, fmt.Sprintf("anytime, %s", models.FormatUser(m.Author.ID)))
	case cmdCredits:
		b.reply(m.ChannelID, "made with love by the hew crew")
	case cmdInitiate:
		b.handleInitiate(ctx, m.Author.ID, m.ChannelID, rest)
	}

	b.config.Metrics.CommandHandled(commandName(cmd))
}

// handleInitiate runs free text through the scheduling engine
func (b *Bot) handleInitiate(ctx context.Context, userID, channelID, text string) {
	out, err := b.config.Scheduler.Initiate(ctx, &scheduler.InitiateInput{
		UserID:      userID,
		ChannelID:   channelID,
		ChannelName: b.channelName(channelID),
		Text:        text,
	})
	if err != nil {
		log.Printf("Initiate failed: %v", err)
		return
	}

	switch out.Outcome {
	case scheduler.InitiateCreated:
		// announcement already posted by the engine
	case scheduler.InitiateConflict:
		b.reply(channelID, renderConflict(out.Conflict))
	case scheduler.InitiateAmbiguousTime:
		b.reply(channelID, renderAmbiguousTime(out.TimeSpecs))
	case scheduler.InitiateNotScheduling:
		b.reply(channelID, renderUsage(b.config.Trigger))
	}
}

func (b *Bot) handleGames(ctx context.Context, channelID string) {
	out, err := b.config.Scheduler.ListGames(ctx, &scheduler.ListGamesInput{ChannelID: channelID})
	if err != nil {
		log.Printf("ListGames failed: %v", err)
		return
	}

	b.reply(channelID, renderGamesList(out.Games))
}

// handleScuttle parses "scuttle [game] to <time>" and reschedules
func (b *Bot) handleScuttle(ctx context.Context, userID, channelID, args string) {
	fields := strings.Fields(args)

	toIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f, "to") {
			toIdx = i
		}
	}
	if toIdx < 0 || toIdx == len(fields)-1 {
		b.reply(channelID, "usage: scuttle [game] to <time>")
		return
	}

	timeTokens := fields[toIdx+1:]
	previous := ""
	token := timeTokens[0]
	if len(timeTokens) > 1 && strings.EqualFold(timeTokens[0], "half") {
		previous = "half"
		token = timeTokens[1]
	}

	to, err := parse.ParseTime(token, previous)
	if err != nil {
		b.reply(channelID, fmt.Sprintf("can't read %q as a time", strings.Join(timeTokens, " ")))
		return
	}

	out, err := b.config.Scheduler.Reschedule(ctx, &scheduler.RescheduleInput{
		UserID:    userID,
		ChannelID: channelID,
		Selector:  strings.Join(fields[:toIdx], " "),
		To:        to,
	})
	if err != nil {
		log.Printf("Reschedule failed: %v", err)
		return
	}

	b.reply(channelID, renderRescheduleOutcome(out))
}

// filterBySelector narrows games by an explicit time or a description
// fragment
func filterBySelector(games []*models.Game, selector string) []*models.Game {
	filtered := games[:0:0]
	at, timeErr := parse.ParseTime(selector, "")
	for _, game := range games {
		if timeErr == nil && models.WhenStr(game.When) == at.String() {
			filtered = append(filtered, game)
		} else if timeErr != nil &&
			strings.Contains(strings.ToLower(game.Description), strings.ToLower(selector)) {
			filtered = append(filtered, game)
		}
	}
	return filtered
}

// handleCancel flies a game out. With no selector it targets the only
// game the user created in the channel.
func (b *Bot) handleCancel(ctx context.Context, userID, channelID, args string) {
	list, err := b.config.Scheduler.ListGames(ctx, &scheduler.ListGamesInput{ChannelID: channelID})
	if err != nil {
		log.Printf("ListGames failed: %v", err)
		return
	}

	var candidates []*models.Game
	if selector := strings.TrimSpace(args); selector == "" {
		for _, game := range list.Games {
			if game.CreatorID == userID {
				candidates = append(candidates, game)
			}
		}
		if len(candidates) == 0 {
			b.reply(channelID, fmt.Sprintf("%s, you've got no games to cancel", models.FormatUser(userID)))
			return
		}
		if len(candidates) > 1 {
			b.reply(channelID, fmt.Sprintf("which of your %d games do you want to cancel?", len(candidates)))
			return
		}
	} else {
		candidates = filterBySelector(list.Games, selector)
		if len(candidates) == 0 {
			b.reply(channelID, "couldn't find that game")
			return
		}
		if len(candidates) > 1 {
			b.reply(channelID, fmt.Sprintf("which one? that matches %d games", len(candidates)))
			return
		}
	}

	out, err := b.config.Scheduler.Cancel(ctx, &scheduler.CancelInput{
		UserID: userID,
		GameID: candidates[0].ID,
	})
	if err != nil {
		log.Printf("Cancel failed: %v", err)
		return
	}

	b.reply(channelID, renderCancelOutcome(out, userID))
}

// handleBail takes a user off a roster. With no selector it targets
// the only game the user is in.
func (b *Bot) handleBail(ctx context.Context, userID, channelID, args string) {
	list, err := b.config.Scheduler.ListGames(ctx, &scheduler.ListGamesInput{ChannelID: channelID})
	if err != nil {
		log.Printf("ListGames failed: %v", err)
		return
	}

	var candidates []*models.Game
	for _, game := range list.Games {
		if game.HasPlayer(userID) {
			candidates = append(candidates, game)
		}
	}

	if selector := strings.TrimSpace(args); selector != "" {
		candidates = filterBySelector(candidates, selector)
	}

	switch len(candidates) {
	case 0:
		b.reply(channelID, fmt.Sprintf("%s, you're not in any of those", models.FormatUser(userID)))
	case 1:
		out, err := b.config.Scheduler.Leave(ctx, &scheduler.LeaveInput{
			UserID: userID,
			GameID: candidates[0].ID,
		})
		if err != nil {
			log.Printf("Leave failed: %v", err)
			return
		}
		if out.Removed {
			b.reply(channelID, fmt.Sprintf("%s bailed on %s",
				models.FormatUser(userID), out.Game.Description))
		}
	default:
		b.reply(channelID, fmt.Sprintf("which one? you're in %d games here", len(candidates)))
	}
}

func (b *Bot) handleStats(ctx context.Context, channelID, args string) {
	req, ok := parse.ParseStatsRequest(args)
	if !ok {
		b.reply(channelID, "usage: stats [year] [channel] [k=N] [h=N]")
		return
	}

	targetID := channelID
	if req.Channel != "" {
		if id := b.channelIDByName(req.Channel); id != "" {
			targetID = id
		}
	}

	out, err := b.config.History.SummaryStats(ctx, &historySvc.SummaryStatsInput{
		ChannelID:  targetID,
		Year:       req.Year,
		Parameters: req.Params,
	})
	if err != nil {
		log.Printf("SummaryStats failed: %v", err)
		return
	}

	msg, err := b.config.Session.ChannelMessageSend(channelID, renderStatsTables(out, b.mutedUsers(ctx, out)))
	if err != nil {
		log.Printf("Failed to post stats in channel %s: %v", channelID, err)
		return
	}

	// keep the table live: later votes edit it in place
	b.lastStats[targetID] = &statsAnchor{
		postedIn:  channelID,
		messageID: msg.ID,
		year:      req.Year,
		params:    req.Params,
	}
}

// refreshStats re-renders the latest stats table in a channel after a
// vote changes the numbers
func (b *Bot) refreshStats(ctx context.Context, channelID string) {
	anchor, ok := b.lastStats[channelID]
	if !ok {
		return
	}

	out, err := b.config.History.SummaryStats(ctx, &historySvc.SummaryStatsInput{
		ChannelID:  channelID,
		Year:       anchor.year,
		Parameters: anchor.params,
	})
	if err != nil {
		log.Printf("SummaryStats failed: %v", err)
		return
	}

	_, err = b.config.Session.ChannelMessageEdit(anchor.postedIn, anchor.messageID, renderStatsTables(out, b.mutedUsers(ctx, out)))
	if err != nil {
		log.Printf("Failed to refresh stats in channel %s: %v", anchor.postedIn, err)
	}
}

func (b *Bot) handleElo(ctx context.Context, channelID, args string) {
	req, ok := parse.ParseStatsRequest(args)
	if !ok {
		req = &parse.StatsRequest{}
	}

	k := 0
	if req.Params != nil {
		k = req.Params["k"]
	}

	out, err := b.config.History.Standings(ctx, &historySvc.StandingsInput{
		ChannelID: channelID,
		Year:      req.Year,
		K:         k,
	})
	if err != nil {
		log.Printf("Standings failed: %v", err)
		return
	}

	b.reply(channelID, renderStandings(out))
}

// handleMute flips whether stats tables ping the user
func (b *Bot) handleMute(ctx context.Context, userID, channelID string, muted bool) {
	if b.config.Players == nil {
		return
	}

	err := b.config.Players.SavePlayer(ctx, &playerRepo.SavePlayerInput{
		Player: &models.Player{ID: userID, Muted: muted},
	})
	if err != nil {
		log.Printf("SavePlayer failed: %v", err)
		return
	}

	if muted {
		b.reply(channelID, fmt.Sprintf("%s won't be pinged in stats", models.FormatUser(userID)))
	} else {
		b.reply(channelID, fmt.Sprintf("%s is back on the ping list", models.FormatUser(userID)))
	}
}

// mutedUsers loads the mute flag for every user in the summary
func (b *Bot) mutedUsers(ctx context.Context, out *historySvc.SummaryStatsOutput) map[string]bool {
	muted := make(map[string]bool)
	if b.config.Players == nil {
		return muted
	}

	for _, table := range out.Tables {
		for _, line := range table.Lines {
			if _, ok := muted[line.User]; ok {
				continue
			}
			p, err := b.config.Players.GetPlayer(ctx, &playerRepo.GetPlayerInput{PlayerID: line.User})
			if err != nil {
				muted[line.User] = false
				continue
			}
			muted[line.User] = p.Muted
		}
	}

	return muted
}

// handleReaction turns announcement reactions into roster changes and
// stat votes
func (b *Bot) handleReaction(ctx context.Context, r *discordgo.MessageReaction, added bool) {
	if state := b.config.Session.State; state != nil && state.User != nil && r.UserID == state.User.ID {
		return
	}

	emoji := r.Emoji.Name

	// Join/leave toggles on a live announcement
	live, err := b.config.Scheduler.GameByMessage(ctx, &scheduler.GameByMessageInput{
		MessageID: r.MessageID,
	})
	if err != nil {
		log.Printf("GameByMessage failed: %v", err)
		return
	}

	if live.Game != nil && isJoinEmoji(emoji) {
		if added {
			out, err := b.config.Scheduler.Join(ctx, &scheduler.JoinInput{
				UserID: r.UserID,
				GameID: live.Game.ID,
			})
			if err != nil {
				log.Printf("Join failed: %v", err)
				return
			}
			// success shows in the announcement edit; only refusals
			// get a reply
			if out.Outcome != scheduler.JoinJoined {
				b.reply(r.ChannelID, renderJoinOutcome(out, r.UserID))
			}
		} else {
			if _, err := b.config.Scheduler.Leave(ctx, &scheduler.LeaveInput{
				UserID: r.UserID,
				GameID: live.Game.ID,
			}); err != nil {
				log.Printf("Leave failed: %v", err)
			}
		}
		return
	}

	// Stat votes land on the ledger, keyed by the same message
	ledger, err := b.config.History.GetGame(ctx, &historySvc.GetGameInput{MessageID: r.MessageID})
	if err != nil || ledger.Game == nil {
		return
	}

	cat := category.ByName(ledger.Game.Category)

	if stat, ok := cat.StatForEmoji(emoji); ok {
		b.registerStat(ctx, r.ChannelID, r.MessageID, r.UserID, r.UserID, stat, !added)
		return
	}

	if cat.ScrubVoting {
		if pos := numberEmojiIndex(emoji); pos >= 0 && pos < len(ledger.Game.Players) {
			subject := ledger.Game.Players[pos]
			b.registerStat(ctx, r.ChannelID, r.MessageID, subject, r.UserID, category.StatScrub, !added)
		}
	}
}

func (b *Bot) registerStat(ctx context.Context, channelID, messageID, user, voter, stat string, remove bool) {
	out, err := b.config.History.RegisterStat(ctx, &historySvc.RegisterStatInput{
		MessageID: messageID,
		User:      user,
		Voter:     voter,
		Remove:    remove,
		Stat:      stat,
	})
	if err != nil {
		log.Printf("RegisterStat failed: %v", err)
		return
	}

	if !out.Registered {
		return
	}

	if !remove {
		b.config.Metrics.StatVote()
	}

	b.refreshStats(ctx, channelID)
}

// reply posts a plain message, logging failures
func (b *Bot) reply(channelID, text string) {
	if _, err := b.config.Session.ChannelMessageSend(channelID, text); err != nil {
		log.Printf("Failed to reply in channel %s: %v", channelID, err)
	}
}

// channelName resolves and caches a channel's name, used to pick the
// game category
func (b *Bot) channelName(channelID string) string {
	if name, ok := b.channelNames[channelID]; ok {
		return name
	}

	channel, err := b.config.Session.State.Channel(channelID)
	if err != nil {
		channel, err = b.config.Session.Channel(channelID)
		if err != nil {
			log.Printf("Failed to resolve channel %s: %v", channelID, err)
			return ""
		}
	}

	b.channelNames[channelID] = channel.Name
	return channel.Name
}

// channelIDByName scans the session state for a channel by name
func (b *Bot) channelIDByName(name string) string {
	state := b.config.Session.State
	if state == nil {
		return ""
	}

	for _, guild := range state.Guilds {
		for _, channel := range guild.Channels {
			if strings.EqualFold(channel.Name, name) {
				return channel.ID
			}
		}
	}

	return ""
}

func isJoinEmoji(emoji string) bool {
	for _, e := range category.JoinEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

func numberEmojiIndex(emoji string) int {
	for i, e := range category.NumberEmojis {
		if e == emoji {
			return i
		}
	}
	return -1
}
