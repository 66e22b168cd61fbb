package bot

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/vidrelay/internal/delivery"
)

// TelegramMessenger adapts the Telegram Bot API to the delivery.Messenger
// interface.
//
// Forum-topic routing uses the reply workaround: a message sent as a reply
// to the topic's thread root lands in that topic, so a non-zero threadID is
// carried as ReplyToMessageID.
type TelegramMessenger struct {
	api    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewTelegramMessenger wraps an authorized bot API client.
func NewTelegramMessenger(api *tgbotapi.BotAPI, logger *slog.Logger) *TelegramMessenger {
	return &TelegramMessenger{
		api:    api,
		logger: logger,
	}
}

// SendMessage posts a plain text message.
func (m *TelegramMessenger) SendMessage(chatID int64, threadID int, text string) (delivery.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if threadID != 0 {
		msg.ReplyToMessageID = threadID
	}

	sent, err := m.api.Send(msg)
	if err != nil {
		return delivery.MessageRef{}, err
	}
	return delivery.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// DeleteMessage removes a previously sent message.
func (m *TelegramMessenger) DeleteMessage(ref delivery.MessageRef) error {
	_, err := m.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID))
	return err
}

// SendVideo uploads a local file as a playable video.
func (m *TelegramMessenger) SendVideo(chatID int64, threadID int, videoPath, caption, thumbPath string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(videoPath))
	video.Caption = caption
	if thumbPath != "" {
		video.Thumb = tgbotapi.FilePath(thumbPath)
	}
	if threadID != 0 {
		video.ReplyToMessageID = threadID
	}

	_, err := m.api.Send(video)
	return err
}

// SendDocument uploads a local file as a generic attachment.
func (m *TelegramMessenger) SendDocument(chatID int64, threadID int, docPath, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(docPath))
	doc.Caption = caption
	if threadID != 0 {
		doc.ReplyToMessageID = threadID
	}

	_, err := m.api.Send(doc)
	return err
}
