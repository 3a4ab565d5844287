package lang

var ru = map[string]string{
	"first_interaction":         "Добро пожаловать! Используйте /set_data для регистрации и /support для связи с нами.",
	"unknown_text":              "Я не понимаю это сообщение. Попробуйте /start.",
	"nothing_to_cancel":         "Нечего отменять.",
	"cancelled":                 "Отменено.",
	"success":                   "Успешно",
	"error":                     "Ошибка",
	"nothing_found":             "Ничего не найдено",
	"nothing_happened":          "Ничего не произошло",
	"choose":                    "Выберите:",
	"back":                      "Назад",
	"select":                    "Выбрать",
	"close":                     "Закрыть",
	"confirm":                   "Подтвердить",
	"cancel":                    "Отмена",
	"please_confirm":            "Пожалуйста, подтвердите",
	"start":                     "Начать",
	"wrong_input":               "Неверный ввод, команда отменена.",
	"the_chat_is_not_private":   "Эта команда работает только в личном чате.",
	"wrong_env_config":          "Бот настроен неверно, обратитесь в поддержку.",
	"help":                      "Команды:\n/%s — начать\n/%s — поддержка\n/%s — ваши данные\n/%s — регистрация",

	"send_your_full_name":        "Отправьте ваше полное имя.",
	"send_your_bid":              "Отправьте ваш Binance ID.",
	"send_your_wallet":           "Отправьте ваш TRC-20 кошелёк для вывода.",
	"successfully_registered":    "Вы зарегистрированы! Посмотреть данные: /%s.",
	"you_have_not_registered_yet": "Вы ещё не зарегистрированы. Используйте /set_data.",
	"my_data":                    "Имя: %s\nBinance ID: %d\nКошелёк: %s",

	"open_new_ticket":                      "Открыть новый тикет",
	"my_open_tickets":                      "Мои открытые тикеты",
	"get_support_help":                     "Как работает поддержка?",
	"support_help":                         "Откройте тикет, опишите проблему и дождитесь агента. Пока тикет выбран, всё что вы отправляете, уходит агенту.",
	"your_open_tickets":                    "Ваши открытые тикеты:",
	"ticket_creation_process_start":        "Отправьте короткий заголовок тикета (или /cancel).",
	"ticket_creation_process_is_button":    "Создание тикета отменено нажатием кнопки.",
	"ticket_creation_process_is_cancelled": "Создание тикета отменено.",
	"your_ticket_was_successfully_created": "Ваш тикет создан. Агент скоро подключится.",
	"new_ticket_was_opened":                "Открыт новый тикет поддержки.",
	"your_ticket_was_opened":               "Агент подключился к вашему тикету \"%s\". Можете писать.",
	"the_ticket_was_closed":                "Ваш тикет \"%s\" был закрыт.",
	"you_have_selected_ticket_no":          "Вы выбрали тикет %s \"%s\".",
	"unknown_text_no_tickets_selected":     "Тикет не выбран, ваше сообщение не было доставлено.",
	"we_dont_support_this_type_of_message": "Мы не поддерживаем этот тип сообщений.",
	"you_have_new_unread_messages":         "У вас новые непрочитанные сообщения в тикете \"%s\".",
	"please_click_the_button_to_answer":    "Нажмите кнопку, чтобы ответить.",
	"interlocutor_have_blocked_the_bot":    "Собеседник заблокировал бота, ваше сообщение не доставлено.",
	"message_from_agent":                   "От: агент поддержки",
	"message_from_user":                    "От: пользователь",
	"something_went_wrong_please_notify":   "Что-то пошло не так. Пожалуйста, свяжитесь с %s.",

	"level_increased":   "Ваш уровень кэшбэка повышен!",
	"level_decreased":   "Ваш уровень кэшбэка понижен.",
	"you_got_new_payoff": "Вам доступна новая выплата: %s",
	"new_user":          "Новый пользователь!\n%s\n@%s\n%d",

	"admin.new_calculation":               "Новый расчёт",
	"admin.notify_all_users_about_payoff": "Уведомить всех о выплате",
	"admin.increase_level":                "Повысить уровень",
	"admin.decrease_level":                "Понизить уровень",
	"admin.send_binance_id":               "Отправьте Binance ID пользователя.",
	"admin.level_wasnt_changed":           "Уровень не был изменён.",
	"admin.send_a_file_or_a_link":         "Отправьте CSV-файл или ссылку pixeldrain / filetransfer.io.",
	"admin.wrong_link":                    "Эта ссылка не поддерживается.",
	"admin.started_calculation":           "Расчёт запущен...",
	"admin.error_during_db_prune":         "Ошибка при очистке базы расчётов.",
	"admin.error_during_api_calculations": "Ошибка при запросе к сервису расчётов.",
	"admin.calculation_successful":        "Расчёт завершён.",
	"admin.withdraw_list":                 "Текущий список выплат:\n\n",
	"admin.failed_to_notify_user":         "Не удалось уведомить %s (%s).",
	"admin.unknown_input":                 "Неизвестный ввод, отправьте CSV-файл или ссылку.",
}
