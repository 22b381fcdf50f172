package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier delivers a rendered message to a notification channel. The bot is
// the only implementation in production; tests substitute a fake.
type Notifier interface {
	Send(chatID, message string) error
}

// Translator resolves a message key for a language. Satisfied by
// i18n.Translator.
type Translator interface {
	T(lang, key string) string
}

// ScanSummary reports what a due-item scan found and delivered.
type ScanSummary struct {
	Notified         int `json:"notified"`
	ProductsChecked  int `json:"productsChecked"`
	RemindersChecked int `json:"remindersChecked"`
}

// RunDueScan performs one pass over everything that is due at now: stocked
// products past their remind moment and open reminders past their due date,
// grouped per household.
//
// Product state advances to reminded, and a dispatch log row is written,
// only after the household's message was delivered. A failed delivery leaves
// everything untouched so the next pass selects the same set again; a
// successful one removes the products from the due set until they are
// restocked. Failures are isolated per household.
func (s *Service) RunDueScan(now time.Time, notifier Notifier, tr Translator) (ScanSummary, error) {
	runID := uuid.NewString()
	summary := ScanSummary{}

	stocked, err := s.store.GetActiveStockedProducts()
	if err != nil {
		return summary, fmt.Errorf("failed to load stocked products: %w", err)
	}

	dueByHousehold := make(map[int64][]ProductWithTiming)
	for _, p := range stocked {
		if !DueForReminder(p, now) {
			continue
		}
		summary.ProductsChecked++
		dueByHousehold[p.HouseholdID] = append(dueByHousehold[p.HouseholdID], ProductWithTiming{
			Product: p,
			Timing:  Project(p, now),
		})
	}

	for householdID, due := range dueByHousehold {
		household, err := s.store.GetHouseholdByID(householdID)
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Int64("household_id", householdID).
				Msg("skipping household, lookup failed")
			continue
		}
		if household.TelegramChatID == nil {
			continue
		}

		message := formatProductReminder(due, household.Language, tr)
		if err := notifier.Send(*household.TelegramChatID, message); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Int64("household_id", householdID).
				Msg("product reminder delivery failed, state left untouched")
			continue
		}
		summary.Notified++

		for _, item := range due {
			if err := s.store.SetProductStatus(item.Product.ID, StatusReminded, now); err != nil {
				log.Error().Err(err).Str("run_id", runID).Int64("product_id", item.Product.ID).
					Msg("failed to advance product to reminded")
				continue
			}
			if err := s.store.AppendDispatchLog(&DispatchLogEntry{
				RunID:     runID,
				ProductID: item.Product.ID,
				Message:   message,
			}); err != nil {
				log.Error().Err(err).Str("run_id", runID).Int64("product_id", item.Product.ID).
					Msg("failed to append dispatch log entry")
			}
		}
	}

	dueReminders, err := s.store.GetDueReminders(now)
	if err != nil {
		// Product half of the pass already ran; report it alongside the error.
		return summary, fmt.Errorf("failed to load due reminders: %w", err)
	}
	summary.RemindersChecked = len(dueReminders)

	remindersByHousehold := make(map[int64][]*Reminder)
	for _, r := range dueReminders {
		remindersByHousehold[r.HouseholdID] = append(remindersByHousehold[r.HouseholdID], r)
	}

	for householdID, reminders := range remindersByHousehold {
		household, err := s.store.GetHouseholdByID(householdID)
		if err != nil {
			log.Error().Err(err).Str("run_id", runID).Int64("household_id", householdID).
				Msg("skipping household, lookup failed")
			continue
		}
		if household.TelegramChatID == nil {
			continue
		}

		// The scan only reports reminders; completion stays an explicit act.
		message := formatReminderDigest(reminders, household.Language, tr)
		if err := notifier.Send(*household.TelegramChatID, message); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Int64("household_id", householdID).
				Msg("reminder digest delivery failed")
			continue
		}
		summary.Notified++
	}

	log.Info().Str("run_id", runID).
		Int("notified", summary.Notified).
		Int("products_due", summary.ProductsChecked).
		Int("reminders_due", summary.RemindersChecked).
		Msg("due-item scan finished")

	return summary, nil
}

// StartScanWorker runs the due-item scan on a fixed interval until the
// context is cancelled. The cron endpoint triggers the same scan on demand;
// neither guards against the other, delivery-gated state advance makes
// overlap harmless.
func (s *Service) StartScanWorker(ctx context.Context, interval time.Duration, notifier Notifier, tr Translator) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("starting scan worker")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scan worker stopping")
			return
		case <-ticker.C:
			if _, err := s.RunDueScan(time.Now(), notifier, tr); err != nil {
				log.Error().Err(err).Msg("scheduled scan failed")
			}
		}
	}
}

func formatProductReminder(due []ProductWithTiming, lang string, tr Translator) string {
	var msg strings.Builder
	msg.WriteString(tr.T(lang, "scan.products.header"))
	msg.WriteString("\n\n")
	for _, item := range due {
		msg.WriteString(fmt.Sprintf(tr.T(lang, "scan.products.line"), item.Product.Name, item.Timing.DaysRemaining))
		msg.WriteString("\n")
	}
	msg.WriteString("\n")
	msg.WriteString(tr.T(lang, "scan.products.footer"))
	return msg.String()
}

func formatReminderDigest(reminders []*Reminder, lang string, tr Translator) string {
	var msg strings.Builder
	msg.WriteString(tr.T(lang, "scan.reminders.header"))
	msg.WriteString("\n")
	for _, r := range reminders {
		msg.WriteString("\n")
		if r.Description != "" {
			msg.WriteString(fmt.Sprintf(tr.T(lang, "scan.reminders.line.detail"), r.Title, r.Description))
		} else {
			msg.WriteString(fmt.Sprintf(tr.T(lang, "scan.reminders.line"), r.Title))
		}
	}
	return msg.String()
}
