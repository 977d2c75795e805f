// Package reactions holds the flavor-phrase catalog and its random
// selection. Classification is deterministic and lives in the ledger
// package; only phrase choice is random, so the engine stays testable.
package reactions

import (
	"math/rand/v2"

	"github.com/kkalbot/kkalbot/internal/ledger"
)

var intakePhrases = map[ledger.IntakeTier][]string{
	ledger.IntakeNegligible: {
		"Это было не еда, а тест-драйв.",
		"Перекус-призрак.",
		"Лимит даже не заметил.",
		"Так ест человек с характером.",
		"Можно считать, что «ничего не было».",
		"Организм такой: «и всё?»",
		"Диета довольно улыбается.",
		"Аккуратненько, красиво.",
		"Лёгкий шаг, а не еда.",
		"Просто размял желудок.",
	},
	ledger.IntakeLight: {
		"Лёгкий заход, лимит не в стрессе.",
		"Нормальный скромный приём.",
		"Поел — но без последствий.",
		"Чистый, спокойный ход.",
		"Пока всё под контролем.",
		"Диета не напрягается.",
		"Умерено, приятно, не страшно.",
		"Типичный «не стыдно» перекус.",
		"Ещё далеко до проблем.",
		"Симпатичный порционочный формат.",
	},
	ledger.IntakeModerate: {
		"Вот это уже еда.",
		"Плотно, но без паники.",
		"Лимит почувствовал, но терпит.",
		"Вкусно и заметно.",
		"Хороший полноценный приём.",
		"Силы есть, свободы меньше.",
		"Норм в пределах дня.",
		"Так можно питаться каждый день.",
		"Плотненько, но разумно.",
		"По-классике — еда как еда.",
	},
	ledger.IntakeHeavy: {
		"Мощный заход.",
		"Лимит присел от неожиданности.",
		"Это уже серьёзно.",
		"Так ест человек, который проголодался.",
		"Сыто, громко, внушительно.",
		"Желудок доволен, лимит в напряге.",
		"Ещё немного — и будет много.",
		"Серьёзный приём.",
		"Аппетит явно победил.",
		"Такое лучше не повторять часто.",
	},
	ledger.IntakeExtreme: {
		"Это был налёт на холодильник.",
		"Лимит сейчас поперхнулся.",
		"Очень мощный приём.",
		"Праздничный объём еды.",
		"Это был монстр-приём.",
		"Диета уже пишет заявление.",
		"Банкет, не иначе.",
		"Сейчас было слишком много.",
		"Очень тяжёлый заход.",
		"Калории кричат от избытка.",
	},
}

var headroomPhrases = map[ledger.HeadroomTier][]string{
	ledger.HeadroomAmple: {
		"Ты ещё очень далеко от края.",
		"Лимит чистенький, как новый.",
		"Можно есть спокойно.",
		"Запас огромный, кайф.",
		"Играешь на лёгком уровне.",
		"Диета тобой довольна.",
		"Контроль идеальный.",
		"Плывёшь уверенно.",
		"Запас как у танка.",
		"Пока вообще не страшно.",
	},
	ledger.HeadroomComfortable: {
		"Пока всё норм, но уже с умом.",
		"Свобода есть, но не бесконечная.",
		"Спокойная зона.",
		"Можно продолжать, но аккуратнее.",
		"Пока по плану.",
		"Немного подъел, но жить можно.",
		"Ещё не тревожно.",
		"Зона комфорта сохраняется.",
		"Пока зелёный коридор.",
		"Осторожно, но можно.",
	},
	ledger.HeadroomTight: {
		"Место заканчивается.",
		"Это уже жёлтая зона.",
		"Каждый кусок теперь — решение.",
		"Лучше подумать, прежде чем есть.",
		"Запас смешной.",
		"Коридор очень узкий.",
		"Лимит почти на пределе.",
		"Ещё чуть-чуть — и всё.",
		"Надо включать голову.",
		"Сейчас легко перебрать.",
	},
	ledger.HeadroomCritical: {
		"Лимит уже задыхается.",
		"Ты в красной зоне.",
		"Ещё немного — и перелёт.",
		"Лучше остановиться.",
		"Дальше нельзя, если хочешь минус.",
		"Предельно опасный момент.",
		"Ситуация критическая.",
		"Сегодня уже тяжело.",
		"Лимит на последнем издыхании.",
		"Дальше вредно для прогресса.",
	},
	ledger.HeadroomExceeded: {
		"Лимит кончился, день улетел.",
		"Чистый перелёт.",
		"Сегодня плюс по калориям.",
		"Срыв по лимиту уверенный.",
		"Диета сегодня проиграла.",
		"Весы уже плачут.",
		"Полетели за грань.",
		"Этот день точно не про дефицит.",
		"Перебор очевиден.",
		"Выход в космос по калориям.",
	},
}

// ForIntake picks a random phrase matching the intake tier.
func ForIntake(tier ledger.IntakeTier) string {
	return pick(intakePhrases[tier])
}

// ForHeadroom picks a random phrase matching the headroom tier.
func ForHeadroom(tier ledger.HeadroomTier) string {
	return pick(headroomPhrases[tier])
}

// Pick flips a coin between an intake-sized reaction and a headroom
// reaction, the way the original bot reacted to a logged meal.
func Pick(intake ledger.IntakeTier, headroom ledger.HeadroomTier) string {
	if rand.IntN(2) == 0 {
		return ForIntake(intake)
	}
	return ForHeadroom(headroom)
}

func pick(phrases []string) string {
	if len(phrases) == 0 {
		return ""
	}
	return phrases[rand.IntN(len(phrases))]
}
