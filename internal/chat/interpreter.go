package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pantry-monolith/internal/core"
)

// Interpreter maps inbound chat messages to product and reminder operations.
// It is transport-free: the bot hands it a channel id and a text line and
// sends back whatever reply it returns. An empty reply means stay silent.
type Interpreter struct {
	service    *core.Service
	translator core.Translator
}

// NewInterpreter creates an Interpreter backed by the given service
func NewInterpreter(service *core.Service, translator core.Translator) *Interpreter {
	return &Interpreter{
		service:    service,
		translator: translator,
	}
}

// HandleMessage resolves the chat to its household and dispatches the
// command. Unknown chats and unrecognized commands produce no reply, so an
// unregistered channel can't probe the bot.
func (in *Interpreter) HandleMessage(chatID, text string, now time.Time) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	household, err := in.service.HouseholdByChatID(chatID)
	if err != nil {
		return ""
	}
	lang := household.Language

	fields := strings.Fields(text)
	cmd := fields[0]
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))

	switch cmd {
	case "/lijst", "/list":
		return in.handleList(household, lang, now)
	case "/voorraad", "/status":
		return in.handleStatus(household, lang, now)
	case "/urgent":
		return in.handleUrgent(household, lang, now)
	case "/gekocht", "/bought":
		return in.handleBought(household, lang, args, now)
	case "/nodig", "/need":
		return in.handleNeed(household, lang, args, now)
	case "/voeg", "/add":
		return in.handleAdd(household, lang, args, now)
	case "/verwijder", "/remove":
		return in.handleRemove(household, lang, args, now)
	case "/taak", "/task":
		return in.handleTask(household, lang, args, now)
	case "/taken", "/tasks":
		return in.handleTasks(household, lang, now)
	case "/klaar", "/done":
		return in.handleDone(household, lang, args, now)
	case "/help":
		return in.t(lang, "chat.help")
	default:
		return ""
	}
}

func (in *Interpreter) t(lang, key string) string {
	return in.translator.T(lang, key)
}

func (in *Interpreter) handleList(h *core.Household, lang string, now time.Time) string {
	items, err := in.service.ListNeeded(h.ID, now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: list needed failed")
		return in.t(lang, "chat.error")
	}
	if len(items) == 0 {
		return in.t(lang, "chat.list.empty")
	}

	var msg strings.Builder
	msg.WriteString(in.t(lang, "chat.list.header"))
	msg.WriteString("\n\n")
	for _, item := range items {
		if item.Timing.DaysRemaining <= 0 {
			msg.WriteString(fmt.Sprintf(in.t(lang, "chat.list.line.out"), item.Product.Name))
		} else {
			msg.WriteString(fmt.Sprintf(in.t(lang, "chat.list.line"), item.Product.Name, item.Timing.DaysRemaining))
		}
		msg.WriteString("\n")
	}
	return strings.TrimRight(msg.String(), "\n")
}

func (in *Interpreter) handleStatus(h *core.Household, lang string, now time.Time) string {
	items, err := in.service.ListProducts(h.ID, now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: list products failed")
		return in.t(lang, "chat.error")
	}
	if len(items) == 0 {
		return in.t(lang, "chat.status.empty")
	}

	var msg strings.Builder
	msg.WriteString(in.t(lang, "chat.status.header"))
	msg.WriteString("\n\n")
	for _, item := range items {
		marker := "   "
		switch core.UrgencyOf(item.Product, item.Timing) {
		case core.UrgencyOverdue:
			marker = "!!!"
		case core.UrgencyUrgent:
			marker = "(!)"
		}
		msg.WriteString(fmt.Sprintf(in.t(lang, "chat.status.line"), marker, item.Product.Name, item.Timing.DaysRemaining))
		msg.WriteString("\n")
	}
	return strings.TrimRight(msg.String(), "\n")
}

func (in *Interpreter) handleUrgent(h *core.Household, lang string, now time.Time) string {
	items, err := in.service.ListUrgent(h.ID, now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: list urgent failed")
		return in.t(lang, "chat.error")
	}
	if len(items) == 0 {
		return in.t(lang, "chat.urgent.empty")
	}

	var msg strings.Builder
	msg.WriteString(in.t(lang, "chat.urgent.header"))
	msg.WriteString("\n\n")
	for _, item := range items {
		msg.WriteString(fmt.Sprintf(in.t(lang, "chat.list.line"), item.Product.Name, item.Timing.DaysRemaining))
		msg.WriteString("\n")
	}
	return strings.TrimRight(msg.String(), "\n")
}

func (in *Interpreter) handleBought(h *core.Household, lang, args string, now time.Time) string {
	if args == "" {
		return in.t(lang, "chat.bought.usage")
	}

	product, err := in.service.FindProductByName(h.ID, args)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: product search failed")
		return in.t(lang, "chat.error")
	}
	if product == nil {
		return fmt.Sprintf(in.t(lang, "chat.product.notfound"), args)
	}

	updated, err := in.service.MarkBought(product.ID, now)
	if err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("chat: mark bought failed")
		return in.t(lang, "chat.error")
	}
	if updated.IsRecurring {
		return fmt.Sprintf(in.t(lang, "chat.bought.restocked"), updated.Name)
	}
	return fmt.Sprintf(in.t(lang, "chat.bought.removed"), updated.Name)
}

func (in *Interpreter) handleNeed(h *core.Household, lang, args string, now time.Time) string {
	if args == "" {
		return in.t(lang, "chat.need.usage")
	}

	product, created, err := in.service.QuickAdd(h.ID, args, now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: quick add failed")
		return in.t(lang, "chat.error")
	}
	if created {
		return fmt.Sprintf(in.t(lang, "chat.need.created"), product.Name)
	}
	return fmt.Sprintf(in.t(lang, "chat.need.listed"), product.Name)
}

// handleAdd parses "/voeg <naam> <dagen_tot_op> [reminder_dagen]": the last
// one or two tokens are numbers, everything before them is the name.
func (in *Interpreter) handleAdd(h *core.Household, lang, args string, now time.Time) string {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return in.t(lang, "chat.add.usage")
	}

	var name string
	var daysUntilEmpty int
	remindDaysBefore := core.DefaultRemindDaysBefore

	days2, err2 := strconv.Atoi(parts[len(parts)-2])
	remind, errR := strconv.Atoi(parts[len(parts)-1])
	days1, err1 := strconv.Atoi(parts[len(parts)-1])

	switch {
	case len(parts) >= 3 && err2 == nil && errR == nil:
		name = strings.Join(parts[:len(parts)-2], " ")
		daysUntilEmpty = days2
		remindDaysBefore = remind
	case err1 == nil:
		name = strings.Join(parts[:len(parts)-1], " ")
		daysUntilEmpty = days1
	default:
		return in.t(lang, "chat.add.usage")
	}

	product, err := in.service.CreateProduct(h.ID, name, "", daysUntilEmpty, remindDaysBefore, true, "", now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: add product failed")
		return in.t(lang, "chat.add.usage")
	}

	return fmt.Sprintf(in.t(lang, "chat.add.created"), product.Name, product.DaysUntilEmpty, product.RemindDaysBefore)
}

func (in *Interpreter) handleRemove(h *core.Household, lang, args string, now time.Time) string {
	if args == "" {
		return in.t(lang, "chat.remove.usage")
	}

	product, err := in.service.FindProductByName(h.ID, args)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: product search failed")
		return in.t(lang, "chat.error")
	}
	if product == nil {
		return fmt.Sprintf(in.t(lang, "chat.product.notfound"), args)
	}

	if err := in.service.RemoveProduct(product.ID, now); err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("chat: remove product failed")
		return in.t(lang, "chat.error")
	}
	return fmt.Sprintf(in.t(lang, "chat.remove.removed"), product.Name)
}

// handleTask parses "/taak <omschrijving> [datum]". Only the trailing token
// is considered as a date; without one the due date defaults a week out.
func (in *Interpreter) handleTask(h *core.Household, lang, args string, now time.Time) string {
	if args == "" {
		return in.t(lang, "chat.task.usage")
	}

	parts := strings.Fields(args)
	title := args
	var dueDate *time.Time

	if len(parts) >= 2 {
		if due, ok := parseTaskDate(parts[len(parts)-1], now); ok {
			title = strings.Join(parts[:len(parts)-1], " ")
			dueDate = &due
		}
	}

	reminder, err := in.service.CreateReminder(h.ID, title, "", dueDate, nil, now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: create reminder failed")
		return in.t(lang, "chat.error")
	}

	return fmt.Sprintf(in.t(lang, "chat.task.created"), reminder.Title, reminder.DueDate.Format("2006-01-02"))
}

func (in *Interpreter) handleTasks(h *core.Household, lang string, now time.Time) string {
	reminders, err := in.service.PendingReminders(h.ID)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: list reminders failed")
		return in.t(lang, "chat.error")
	}
	if len(reminders) == 0 {
		return in.t(lang, "chat.tasks.empty")
	}

	var msg strings.Builder
	msg.WriteString(in.t(lang, "chat.tasks.header"))
	msg.WriteString("\n\n")
	for _, r := range reminders {
		line := fmt.Sprintf(in.t(lang, "chat.tasks.line"), r.Title, r.DueDate.Format("2006-01-02"))
		if core.OverdueOn(r.DueDate, now) {
			line += " " + in.t(lang, "chat.tasks.overdue")
		}
		if r.IsRecurring() {
			line += " " + fmt.Sprintf(in.t(lang, "chat.tasks.repeat"), *r.RepeatDays)
		}
		msg.WriteString(line)
		msg.WriteString("\n")
	}
	return strings.TrimRight(msg.String(), "\n")
}

func (in *Interpreter) handleDone(h *core.Household, lang, args string, now time.Time) string {
	if args == "" {
		return in.t(lang, "chat.done.usage")
	}

	reminder, err := in.service.CompleteReminderByTitle(h.ID, args, now)
	if err != nil {
		log.Error().Err(err).Int64("household_id", h.ID).Msg("chat: complete reminder failed")
		return in.t(lang, "chat.error")
	}
	if reminder == nil {
		return fmt.Sprintf(in.t(lang, "chat.task.notfound"), args)
	}
	if reminder.IsRecurring() {
		return fmt.Sprintf(in.t(lang, "chat.done.advanced"), reminder.Title, reminder.DueDate.Format("2006-01-02"))
	}
	return fmt.Sprintf(in.t(lang, "chat.done.completed"), reminder.Title)
}
