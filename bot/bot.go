package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"giveabot/config"
	"giveabot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// sweepInterval is how often the schedule trigger and overdue audit run
const sweepInterval = time.Minute

// Bot is the Discord front end. It translates interactions into service
// calls and implements service.Messenger for outbound messages.
type Bot struct {
	cfg     *config.Config
	session *discordgo.Session
	svc     service.GiveawayService

	stopSweep chan struct{}
}

// New creates the Discord session without opening it. The session is needed
// before the service exists because the service sends through the bot.
func New(cfg *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return &Bot{
		cfg:       cfg,
		session:   dg,
		stopSweep: make(chan struct{}),
	}, nil
}

// Start connects to Discord, restores service state, registers the slash
// commands, and starts the periodic schedule sweep. The session is opened
// before state recovery so recovered timers can reach their channels, and
// commands are registered after recovery so no interaction races it.
func (b *Bot) Start(ctx context.Context, svc service.GiveawayService) error {
	b.svc = svc

	b.session.AddHandler(b.handleCommands)
	b.session.AddHandler(b.handleComponents)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	if err := svc.Load(ctx); err != nil {
		b.session.Close()
		return fmt.Errorf("error restoring giveaway state: %w", err)
	}

	// Catch up on anything missed while the bot was down before the
	// ticker takes over
	svc.HandleScheduled(ctx)
	svc.AuditOverdue(ctx)

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}

	go b.runScheduleSweep()

	log.WithField("user", b.session.State.User.Username).Info("Bot is running")
	return nil
}

// Close stops the sweep worker and the service timers, then disconnects
func (b *Bot) Close() error {
	close(b.stopSweep)
	if b.svc != nil {
		b.svc.Close()
	}
	return b.session.Close()
}

// runScheduleSweep fires the config-driven schedule trigger and the overdue
// audit once a minute
func (b *Bot) runScheduleSweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopSweep:
			return
		case <-ticker.C:
			ctx := context.Background()
			b.svc.HandleScheduled(ctx)
			b.svc.AuditOverdue(ctx)
		}
	}
}

// commandGuildID returns the guild to scope command registration to. A
// development guild makes new commands available instantly instead of after
// Discord's global propagation delay.
func (b *Bot) commandGuildID() string {
	if b.cfg.Permissions.DevelopmentGuildID != 0 {
		return strconv.FormatInt(b.cfg.Permissions.DevelopmentGuildID, 10)
	}
	return ""
}
