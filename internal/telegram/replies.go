package telegram

import (
	"fmt"

	"github.com/kkalbot/kkalbot/internal/ledger"
)

// Reply builders are pure so they can be tested without the Telegram API.

func IntakeReply(amount int, st ledger.Status, reaction string) string {
	if st.Remaining >= 0 {
		return fmt.Sprintf("-%d ккал. Осталось %d. %s", amount, st.Remaining, reaction)
	}
	return fmt.Sprintf("-%d ккал. Перебор на %d. %s", amount, -st.Remaining, reaction)
}

func StatusReply(st ledger.Status) string {
	if st.Remaining >= 0 {
		return fmt.Sprintf("Лимит %d ккал, съедено %d, осталось %d.", st.Limit, st.Used, st.Remaining)
	}
	return fmt.Sprintf("Лимит %d ккал, съедено %d. Перебор на %d.", st.Limit, st.Used, -st.Remaining)
}

func LimitReply(limit int) string {
	return fmt.Sprintf("Лимит установлен: %d ккал.", limit)
}

func ResetReply(st ledger.Status) string {
	return fmt.Sprintf("Счётчик обнулён. Доступно %d ккал.", st.Remaining)
}

func HelpReply() string {
	return "Я считаю калории.\n" +
		"Пиши мне, что съедено: «450», «300ккал», «85 на 2.7», «100 + 50».\n" +
		"/set 2000 — установить дневной лимит\n" +
		"/status — сколько осталось\n" +
		"/reset — обнулить счётчик за сегодня"
}
