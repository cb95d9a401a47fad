package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts engine activity for the /metrics endpoint. A nil
// *Metrics is valid and records nothing, so tests can skip it.
type Metrics struct {
	gamesCreated    prometheus.Counter
	gamesCancelled  prometheus.Counter
	gamesFinished   prometheus.Counter
	statVotes       prometheus.Counter
	ticks           prometheus.Counter
	commandsHandled *prometheus.CounterVec
}

// New registers the bot's counters on a registry
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gamesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hewbot_games_created_total",
			Help: "Games scheduled from chat",
		}),
		gamesCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "hewbot_games_cancelled_total",
			Help: "Games scuttled by their creator",
		}),
		gamesFinished: factory.NewCounter(prometheus.CounterOpts{
			Name: "hewbot_games_finished_total",
			Help: "Games that reached the finished state",
		}),
		statVotes: factory.NewCounter(prometheus.CounterOpts{
			Name: "hewbot_stat_votes_total",
			Help: "Stat votes registered on the ledger",
		}),
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "hewbot_ticks_total",
			Help: "Lifecycle tick passes",
		}),
		commandsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hewbot_commands_handled_total",
			Help: "Chat commands handled, by command",
		}, []string{"command"}),
	}
}

func (m *Metrics) GameCreated() {
	if m != nil {
		m.gamesCreated.Inc()
	}
}

func (m *Metrics) GameCancelled() {
	if m != nil {
		m.gamesCancelled.Inc()
	}
}

func (m *Metrics) GameFinished() {
	if m != nil {
		m.gamesFinished.Inc()
	}
}

func (m *Metrics) StatVote() {
	if m != nil {
		m.statVotes.Inc()
	}
}

func (m *Metrics) Tick() {
	if m != nil {
		m.ticks.Inc()
	}
}

func (m *Metrics) CommandHandled(command string) {
	if m != nil {
		m.commandsHandled.WithLabelValues(command).Inc()
	}
}
