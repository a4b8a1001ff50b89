// Package bot runs the Discord front end. It answers the current_affairs command
// with one embed per interpreted event and greets new guild members.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/hyperjump/jidai/internal/config"
	"github.com/hyperjump/jidai/internal/dates"
	"github.com/hyperjump/jidai/internal/metrics"
	"github.com/hyperjump/jidai/internal/models"
	"github.com/hyperjump/jidai/pkg/utils"
)

// CommandCurrentAffairs is the only command the bot answers.
const CommandCurrentAffairs = "current_affairs"

// Replies sent by the bot.
const (
	MsgInvalidDate = "Invalid date format. Please provide the date in DD/MM/YY or DD/MM format."
	MsgNoArticles  = "No articles found for this date."
)

// Discord embed limits.
const (
	maxEmbedTitle       = 256
	maxEmbedDescription = 4096
	maxEmbedFieldValue  = 1024
)

// NewsInterpreter produces interpreted events for a date.
type NewsInterpreter interface {
	InterpretNews(ctx context.Context, date models.DateQuery, query string) []models.InterpretedEvent
}

// Messenger is the subset of the Discord session the bot talks to.
type Messenger interface {
	SendMessage(channelID, content string) error
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
}

// Bot handles gateway events for one Discord session.
type Bot struct {
	cfg       config.BotConfig
	interp    NewsInterpreter
	session   *discordgo.Session
	messenger Messenger
	dates     *dates.Resolver
	logger    *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// WithMessenger replaces the session-backed messenger.
func WithMessenger(m Messenger) Option {
	return func(b *Bot) { b.messenger = m }
}

// WithDateOptions configures the command's date resolver.
func WithDateOptions(opts ...dates.Option) Option {
	return func(b *Bot) { b.dates = dates.Chat(opts...) }
}

// New creates a bot. The Discord session is created only when cfg carries a token.
func New(cfg config.BotConfig, interp NewsInterpreter, opts ...Option) (*Bot, error) {
	b := &Bot{
		cfg:    cfg,
		interp: interp,
		dates:  dates.Chat(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	if b.cfg.Prefix == "" {
		b.cfg.Prefix = "!"
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())

	if cfg.Token != "" {
		s, err := discordgo.New("Bot " + cfg.Token)
		if err != nil {
			return nil, fmt.Errorf("create discord session: %w", err)
		}
		s.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildMembers |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent
		s.AddHandler(b.onReady)
		s.AddHandler(b.onMessageCreate)
		s.AddHandler(b.onGuildMemberAdd)
		b.session = s
		if b.messenger == nil {
			b.messenger = sessionMessenger{s}
		}
	}
	if b.messenger == nil {
		return nil, errors.New("bot needs a token or a messenger")
	}
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is done. In-flight commands
// are cancelled and awaited before the session closes.
func (b *Bot) Run(ctx context.Context) error {
	if b.session == nil {
		return errors.New("bot has no discord session")
	}
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	<-ctx.Done()
	b.Stop()
	return b.session.Close()
}

// Stop cancels running commands and waits for them to return. Messages handled
// after Stop are dropped. Stop may be called more than once.
func (b *Bot) Stop() {
	b.mu.Lock()
	b.stopped = true
	b.cancel()
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	name := "bot"
	if r.User != nil {
		name = r.User.String()
	}
	b.logger.Info(fmt.Sprintf("%s has connected to Discord!", name))
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.HandleMessage(m.Message)
}

func (b *Bot) onGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.Welcome(m.Member)
}

// HandleMessage dispatches a prefixed command. Command work runs on its own goroutine.
func (b *Bot) HandleMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	name, args, ok := parseCommand(b.cfg.Prefix, m.Content)
	if !ok || name != CommandCurrentAffairs {
		return
	}
	channelID := m.ChannelID
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()
	go func() {
		defer b.wg.Done()
		b.CurrentAffairs(b.ctx, channelID, args)
	}()
}

// CurrentAffairs resolves the date argument and posts one embed per event.
func (b *Bot) CurrentAffairs(ctx context.Context, channelID string, args []string) {
	if len(args) == 0 {
		b.reply(channelID, MsgInvalidDate)
		metrics.RecordRequest("bot", "invalid_date")
		return
	}
	date, err := b.dates.Resolve(args[0])
	if err != nil {
		b.reply(channelID, MsgInvalidDate)
		metrics.RecordRequest("bot", "invalid_date")
		return
	}
	query := strings.Join(args[1:], " ")
	b.logger.Debug("current_affairs", zap.String("date", date.String()), zap.String("query", query))

	events := b.interp.InterpretNews(ctx, date, query)
	if len(events) == 0 {
		b.reply(channelID, MsgNoArticles)
		metrics.RecordRequest("bot", "empty")
		return
	}
	for _, e := range events {
		if err := b.messenger.SendEmbed(channelID, EventEmbed(e)); err != nil {
			b.logger.Warn("send embed failed", zap.String("channel", channelID), zap.Error(err))
		}
	}
	metrics.RecordRequest("bot", "ok")
}

// Welcome greets a new member in the guild's welcome text channel, if one exists.
func (b *Bot) Welcome(member *discordgo.Member) {
	if member == nil || member.User == nil {
		return
	}
	channels, err := b.messenger.GuildChannels(member.GuildID)
	if err != nil {
		b.logger.Warn("list guild channels failed", zap.String("guild", member.GuildID), zap.Error(err))
		return
	}
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildText || ch.Name != b.cfg.WelcomeChannel {
			continue
		}
		msg := fmt.Sprintf("Welcome %s to the %s! Use the `%s%s` command to get daily news updates and their historical context.",
			member.User.Mention(), b.cfg.ServerName, b.cfg.Prefix, CommandCurrentAffairs)
		b.reply(ch.ID, msg)
		return
	}
}

func (b *Bot) reply(channelID, content string) {
	if err := b.messenger.SendMessage(channelID, content); err != nil {
		b.logger.Warn("send message failed", zap.String("channel", channelID), zap.Error(err))
	}
}

// EventEmbed formats an event within Discord's embed limits.
func EventEmbed(e models.InterpretedEvent) *discordgo.MessageEmbed {
	title := e.Title
	if title == "" {
		title = e.Date
	}
	return &discordgo.MessageEmbed{
		Title:       utils.Truncate(title, maxEmbedTitle),
		URL:         e.SourceURL,
		Description: utils.Truncate(e.Summary, maxEmbedDescription),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Text", Value: fieldValue(e.FullText)},
			{Name: "Historical Context", Value: fieldValue(e.HistoricalContext)},
		},
	}
}

// Discord rejects empty field values.
func fieldValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return utils.Truncate(s, maxEmbedFieldValue)
}

func parseCommand(prefix, content string) (name string, args []string, ok bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}

type sessionMessenger struct {
	s *discordgo.Session
}

func (m sessionMessenger) SendMessage(channelID, content string) error {
	_, err := m.s.ChannelMessageSend(channelID, content)
	return err
}

func (m sessionMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := m.s.ChannelMessageSendEmbed(channelID, embed)
	return err
}

func (m sessionMessenger) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	return m.s.GuildChannels(guildID)
}
