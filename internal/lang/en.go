package lang

var en = map[string]string{
	"first_interaction":         "Welcome! Use /set_data to register and /support to reach us.",
	"unknown_text":              "I don't understand that. Try /start.",
	"nothing_to_cancel":         "Nothing to cancel.",
	"cancelled":                 "Cancelled.",
	"success":                   "Success",
	"error":                     "Error",
	"nothing_found":             "Nothing found",
	"nothing_happened":          "Nothing happened",
	"choose":                    "Choose:",
	"back":                      "Back",
	"select":                    "Select",
	"close":                     "Close",
	"confirm":                   "Confirm",
	"cancel":                    "Cancel",
	"please_confirm":            "Please confirm",
	"start":                     "Start",
	"wrong_input":               "Wrong input, the command was cancelled.",
	"the_chat_is_not_private":   "This command only works in a private chat.",
	"wrong_env_config":          "The bot is misconfigured, please contact support.",
	"help":                      "Commands:\n/%s — start\n/%s — support\n/%s — your data\n/%s — register",

	"send_your_full_name":        "Send your full name.",
	"send_your_bid":              "Send your Binance ID.",
	"send_your_wallet":           "Send your TRC-20 withdraw wallet.",
	"successfully_registered":    "You are registered! Check your data with /%s.",
	"you_have_not_registered_yet": "You have not registered yet. Use /set_data.",
	"my_data":                    "Name: %s\nBinance ID: %d\nWallet: %s",

	"open_new_ticket":                      "Open a new ticket",
	"my_open_tickets":                      "My open tickets",
	"get_support_help":                     "How does support work?",
	"support_help":                         "Open a ticket, describe your problem and wait for an agent. While a ticket is selected, everything you send goes to the agent.",
	"your_open_tickets":                    "Your open tickets:",
	"ticket_creation_process_start":        "Send a short heading for your ticket (or /cancel).",
	"ticket_creation_process_is_button":    "Ticket creation cancelled by button press.",
	"ticket_creation_process_is_cancelled": "Ticket creation cancelled.",
	"your_ticket_was_successfully_created": "Your ticket was created. An agent will join soon.",
	"new_ticket_was_opened":                "A new support ticket was opened.",
	"your_ticket_was_opened":               "An agent joined your ticket \"%s\". You can write now.",
	"the_ticket_was_closed":                "Your ticket \"%s\" was closed.",
	"you_have_selected_ticket_no":          "You selected ticket %s \"%s\".",
	"unknown_text_no_tickets_selected":     "No ticket is selected, your message was not delivered.",
	"we_dont_support_this_type_of_message": "We don't support this type of message.",
	"you_have_new_unread_messages":         "You have new unread messages in ticket \"%s\".",
	"please_click_the_button_to_answer":    "Press the button to answer.",
	"interlocutor_have_blocked_the_bot":    "The interlocutor has blocked the bot; your message could not be delivered.",
	"message_from_agent":                   "From: support agent",
	"message_from_user":                    "From: user",
	"something_went_wrong_please_notify":   "Something went wrong. Please contact %s.",

	"level_increased":   "Your cashback level was increased!",
	"level_decreased":   "Your cashback level was decreased.",
	"you_got_new_payoff": "You have a new payoff available: %s",
	"new_user":          "New user!\n%s\n@%s\n%d",

	"admin.new_calculation":               "New calculation",
	"admin.notify_all_users_about_payoff": "Notify all users about payoff",
	"admin.increase_level":                "Increase level",
	"admin.decrease_level":                "Decrease level",
	"admin.send_binance_id":               "Send the user's Binance ID.",
	"admin.level_wasnt_changed":           "The level was not changed.",
	"admin.send_a_file_or_a_link":         "Send a CSV file or a pixeldrain / filetransfer.io link.",
	"admin.wrong_link":                    "That link is not supported.",
	"admin.started_calculation":           "Started the calculation...",
	"admin.error_during_db_prune":         "Error while pruning the calculation database.",
	"admin.error_during_api_calculations": "Error while querying the calculation service.",
	"admin.calculation_successful":        "Calculation finished.",
	"admin.withdraw_list":                 "Current withdraw list:\n\n",
	"admin.failed_to_notify_user":         "Failed to notify %s (%s).",
	"admin.unknown_input":                 "Unknown input, send a CSV file or a link.",
}
