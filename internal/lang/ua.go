package lang

// Partial catalog, missing keys fall back to ru.
var ua = map[string]string{
	"first_interaction":       "Ласкаво просимо! Використовуйте /set_data для реєстрації та /support для зв'язку з нами.",
	"unknown_text":            "Я не розумію це повідомлення. Спробуйте /start.",
	"nothing_to_cancel":       "Нічого скасовувати.",
	"cancelled":               "Скасовано.",
	"back":                    "Назад",
	"select":                  "Обрати",
	"close":                   "Закрити",
	"confirm":                 "Підтвердити",
	"cancel":                  "Скасувати",
	"the_chat_is_not_private": "Ця команда працює лише в особистому чаті.",

	"open_new_ticket":                      "Відкрити новий тікет",
	"my_open_tickets":                      "Мої відкриті тікети",
	"get_support_help":                     "Як працює підтримка?",
	"your_open_tickets":                    "Ваші відкриті тікети:",
	"ticket_creation_process_start":        "Надішліть короткий заголовок тікета (або /cancel).",
	"your_ticket_was_successfully_created": "Ваш тікет створено. Агент скоро підключиться.",
	"your_ticket_was_opened":               "Агент підключився до вашого тікета \"%s\". Можете писати.",
	"the_ticket_was_closed":                "Ваш тікет \"%s\" було закрито.",
	"you_have_selected_ticket_no":          "Ви обрали тікет %s \"%s\".",
	"unknown_text_no_tickets_selected":     "Тікет не обрано, ваше повідомлення не було доставлено.",
	"we_dont_support_this_type_of_message": "Ми не підтримуємо цей тип повідомлень.",
	"you_have_new_unread_messages":         "У вас нові непрочитані повідомлення в тікеті \"%s\".",
	"please_click_the_button_to_answer":    "Натисніть кнопку, щоб відповісти.",
	"interlocutor_have_blocked_the_bot":    "Співрозмовник заблокував бота, ваше повідомлення не доставлено.",
	"something_went_wrong_please_notify":   "Щось пішло не так. Будь ласка, зв'яжіться з %s.",

	"level_increased":    "Ваш рівень кешбеку підвищено!",
	"level_decreased":    "Ваш рівень кешбеку знижено.",
	"you_got_new_payoff": "Вам доступна нова виплата: %s",
}
