package gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/refback-io/refback/pkg/protocol"
)

// Telegram is the production Gateway backed by the Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
	client *http.Client
}

// NewTelegram authorizes the bot and returns a ready gateway.
func NewTelegram(token string, logger *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("gateway: init bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Telegram{
		bot:    bot,
		logger: logger,
		client: http.DefaultClient,
	}, nil
}

// Username returns the authorized bot's handle.
func (t *Telegram) Username() string { return t.bot.Self.UserName }

// Start begins long-polling for updates and feeds them to handler.
// Blocks until the context is cancelled.
func (t *Telegram) Start(ctx context.Context, handler Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := t.bot.GetUpdatesChan(u)
	t.logger.Info("telegram gateway started", "bot", t.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			if norm, ok := normalize(update); ok {
				handler(ctx, norm)
			}

		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			t.logger.Info("telegram gateway stopped")
			return ctx.Err()
		}
	}
}

// normalize maps a raw API update onto the internal Update shape.
func normalize(update tgbotapi.Update) (Update, bool) {
	if cb := update.CallbackQuery; cb != nil && cb.Message != nil {
		u := Update{
			Callback: &Callback{
				ID:        cb.ID,
				ChatID:    cb.Message.Chat.ID,
				MessageID: cb.Message.MessageID,
				Data:      cb.Data,
			},
			ChatType: cb.Message.Chat.Type,
		}
		if cb.From != nil {
			u.Name = strings.TrimSpace(cb.From.FirstName + " " + cb.From.LastName)
			u.Username = cb.From.UserName
		}
		return u, true
	}

	msg := update.Message
	if msg == nil {
		return Update{}, false
	}

	u := Update{ChatType: msg.Chat.Type}
	if msg.From != nil {
		u.Name = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		u.Username = msg.From.UserName
	}

	if msg.IsCommand() {
		u.Command = &Command{
			MessageID: msg.MessageID,
			ChatID:    msg.Chat.ID,
			Name:      msg.Command(),
			Args:      msg.CommandArguments(),
		}
		return u, true
	}

	in := &Inbound{
		MessageID:    msg.MessageID,
		ChatID:       msg.Chat.ID,
		Caption:      msg.Caption,
		MediaGroupID: msg.MediaGroupID,
	}
	if msg.ReplyToMessage != nil {
		in.ReplyTo = msg.ReplyToMessage.MessageID
	}

	switch {
	case msg.Text != "":
		in.Kind = protocol.KindText
		in.Text = msg.Text
	case msg.Animation != nil:
		in.Kind = protocol.KindAnimation
		in.FileID = msg.Animation.FileID
	case msg.Video != nil:
		in.Kind = protocol.KindVideo
		in.FileID = msg.Video.FileID
	case msg.Document != nil:
		in.Kind = protocol.KindDocument
		in.FileID = msg.Document.FileID
		in.FileName = msg.Document.FileName
	case msg.Voice != nil:
		in.Kind = protocol.KindVoice
		in.FileID = msg.Voice.FileID
	case msg.VideoNote != nil:
		in.Kind = protocol.KindVideoNote
		in.FileID = msg.VideoNote.FileID
	case msg.Audio != nil:
		in.Kind = protocol.KindAudio
		in.FileID = msg.Audio.FileID
	case len(msg.Photo) > 0:
		in.Kind = protocol.KindPhoto
		in.FileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Sticker != nil:
		in.Kind = protocol.KindSticker
		in.FileID = msg.Sticker.FileID
	case msg.Location != nil, msg.Contact != nil, msg.Poll != nil, msg.Dice != nil, msg.Venue != nil:
		// User content the bot cannot relay. Surfaced so the handler
		// can say so instead of silently ignoring the message.
		in.Kind = protocol.KindUnsupported
	default:
		// Service messages (joins, pins) carry nothing to relay.
		return Update{}, false
	}

	u.Inbound = in
	return u, true
}

func markup(kb *Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, btns)
	}
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

// wrapSendErr translates API failures into gateway errors.
func wrapSendErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "Forbidden: bot was blocked by the user") {
		return fmt.Errorf("gateway: send: %w", ErrBlocked)
	}
	return fmt.Errorf("gateway: send: %w", err)
}

func (t *Telegram) Send(_ context.Context, chatID int64, text string, kb *Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if m := markup(kb); m != nil {
		msg.ReplyMarkup = m
	}
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, wrapSendErr(err)
	}
	return sent.MessageID, nil
}

func (t *Telegram) SendMedia(_ context.Context, chatID int64, kind protocol.MessageKind, fileID, caption string) (int, error) {
	file := tgbotapi.FileID(fileID)

	var cfg tgbotapi.Chattable
	switch kind {
	case protocol.KindPhoto:
		c := tgbotapi.NewPhoto(chatID, file)
		c.Caption = caption
		cfg = c
	case protocol.KindVideo:
		c := tgbotapi.NewVideo(chatID, file)
		c.Caption = caption
		cfg = c
	case protocol.KindDocument:
		c := tgbotapi.NewDocument(chatID, file)
		c.Caption = caption
		cfg = c
	case protocol.KindAudio:
		c := tgbotapi.NewAudio(chatID, file)
		c.Caption = caption
		cfg = c
	case protocol.KindAnimation:
		c := tgbotapi.NewAnimation(chatID, file)
		c.Caption = caption
		cfg = c
	case protocol.KindVoice:
		c := tgbotapi.NewVoice(chatID, file)
		c.Caption = caption
		cfg = c
	case protocol.KindVideoNote:
		cfg = tgbotapi.NewVideoNote(chatID, 0, file)
	case protocol.KindSticker:
		cfg = tgbotapi.NewSticker(chatID, file)
	default:
		return 0, fmt.Errorf("gateway: send media: unsupported kind %q", kind)
	}

	sent, err := t.bot.Send(cfg)
	if err != nil {
		return 0, wrapSendErr(err)
	}
	return sent.MessageID, nil
}

func (t *Telegram) SendAlbum(_ context.Context, chatID int64, items []AlbumItem) error {
	if len(items) == 0 {
		return nil
	}
	media := make([]interface{}, 0, len(items))
	for _, it := range items {
		file := tgbotapi.FileID(it.FileID)
		switch it.Kind {
		case protocol.KindPhoto:
			m := tgbotapi.NewInputMediaPhoto(file)
			m.Caption = it.Caption
			media = append(media, m)
		case protocol.KindVideo:
			m := tgbotapi.NewInputMediaVideo(file)
			m.Caption = it.Caption
			media = append(media, m)
		case protocol.KindDocument:
			m := tgbotapi.NewInputMediaDocument(file)
			m.Caption = it.Caption
			media = append(media, m)
		case protocol.KindAudio:
			m := tgbotapi.NewInputMediaAudio(file)
			m.Caption = it.Caption
			media = append(media, m)
		default:
			return fmt.Errorf("gateway: send album: unsupported kind %q", it.Kind)
		}
	}

	group := tgbotapi.NewMediaGroup(chatID, media)
	if _, err := t.bot.SendMediaGroup(group); err != nil {
		return wrapSendErr(err)
	}
	return nil
}

func (t *Telegram) Edit(_ context.Context, chatID int64, messageID int, text string, kb *Keyboard) error {
	var cfg tgbotapi.Chattable
	if m := markup(kb); m != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *m)
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := t.bot.Request(cfg); err != nil {
		return fmt.Errorf("gateway: edit message: %w", err)
	}
	return nil
}

func (t *Telegram) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("gateway: delete message: %w", err)
	}
	return nil
}

func (t *Telegram) AnswerCallback(_ context.Context, callbackID, text string) error {
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("gateway: answer callback: %w", err)
	}
	return nil
}

func (t *Telegram) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("gateway: resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway: download file: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read file: %w", err)
	}
	return data, nil
}
