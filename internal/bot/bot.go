package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"pantry-monolith/internal/chat"
	"pantry-monolith/internal/core"
	"pantry-monolith/internal/i18n"
)

// Bot bridges Telegram to the command interpreter and carries scan
// notifications back out. It long-polls; no webhook endpoint is exposed.
type Bot struct {
	bot           *tele.Bot
	service       *core.Service
	interpreter   *chat.Interpreter
	publicURL     string
	sessionSecret string
	translator    *i18n.Translator
}

// NewBot creates a new Bot instance
func NewBot(token string, service *core.Service, interpreter *chat.Interpreter, publicURL, sessionSecret string, translator *i18n.Translator) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	bot := &Bot{
		bot:           b,
		service:       service,
		interpreter:   interpreter,
		publicURL:     publicURL,
		sessionSecret: sessionSecret,
		translator:    translator,
	}

	bot.setupHandlers()
	return bot, nil
}

// Start starts the bot polling
func (b *Bot) Start() {
	log.Info().Msg("telegram bot is now running")
	b.bot.Start()
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.bot.Stop()
}

// Send delivers a scan message to a chat. Implements core.Notifier.
func (b *Bot) Send(chatID, message string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	_, err = b.bot.Send(tele.ChatID(id), message, tele.ModeHTML)
	return err
}

// setupHandlers configures command and text handlers. Linking and login are
// handled here because they must work before a chat resolves to a household;
// every other command goes through the interpreter.
func (b *Bot) setupHandlers() {
	b.bot.Handle("/koppel", b.handleLink)
	b.bot.Handle("/link", b.handleLink)
	b.bot.Handle("/web", b.handleWeb)
	b.bot.Handle(tele.OnText, b.handleText)
}

func (b *Bot) chatID(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

// lang resolves the reply language: the linked household's language, or the
// sender's Telegram locale before linking.
func (b *Bot) lang(c tele.Context) string {
	if household, err := b.service.HouseholdByChatID(b.chatID(c)); err == nil {
		return household.Language
	}
	if c.Sender() != nil && strings.HasPrefix(strings.ToLower(c.Sender().LanguageCode), "nl") {
		return "nl"
	}
	return "en"
}

func (b *Bot) t(lang, key string) string {
	return b.translator.T(lang, key)
}

// handleText forwards any free text, including commands telebot did not
// match, to the interpreter. An empty reply means stay silent.
func (b *Bot) handleText(c tele.Context) error {
	reply := b.interpreter.HandleMessage(b.chatID(c), c.Text(), time.Now())
	if reply == "" {
		return nil
	}
	if err := c.Send(reply, tele.ModeHTML); err != nil {
		log.Warn().Err(err).Str("chat_id", b.chatID(c)).Msg("failed to send reply")
	}
	return nil
}

// handleLink binds this chat to the household matching the invite code.
func (b *Bot) handleLink(c tele.Context) error {
	lang := b.lang(c)
	code := strings.TrimSpace(c.Message().Payload)
	if code == "" {
		return c.Send(b.t(lang, "bot.link.usage"))
	}

	household, err := b.service.LinkTelegramChat(code, b.chatID(c))
	if err != nil {
		return c.Send(b.t(lang, "bot.link.invalid"))
	}

	return c.Send(fmt.Sprintf(b.t(household.Language, "bot.link.success"), household.Name), tele.ModeHTML)
}

// handleWeb sends a signed login link for the web UI, matched on the
// sender's Telegram username.
func (b *Bot) handleWeb(c tele.Context) error {
	lang := b.lang(c)

	username := c.Sender().Username
	if username == "" {
		return c.Send(b.t(lang, "bot.web.nousername"))
	}

	user, err := b.service.GetUserByUsername(username)
	if err != nil {
		return c.Send(fmt.Sprintf(b.t(lang, "bot.web.unknown"), b.publicURL))
	}

	loginURL := fmt.Sprintf("%s/auth?user=%s&hash=%s", b.publicURL, user.Username, b.generateLoginHash(user.Username))
	return c.Send(fmt.Sprintf(b.t(lang, "bot.web.access"), loginURL), tele.ModeHTML)
}

// generateLoginHash generates an HMAC-SHA256 hash for username
func (b *Bot) generateLoginHash(username string) string {
	h := hmac.New(sha256.New, []byte(b.sessionSecret))
	h.Write([]byte(username))
	return hex.EncodeToString(h.Sum(nil))
}
