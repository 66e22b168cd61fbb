package delivery

// MessageRef identifies a sent message for later deletion.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Messenger is the narrow messaging surface the orchestrator drives.
// The Telegram adapter lives in the bot package.
type Messenger interface {
	// SendMessage posts a plain text message and returns a handle to it.
	SendMessage(chatID int64, threadID int, text string) (MessageRef, error)

	// DeleteMessage removes a previously sent message. Best effort.
	DeleteMessage(ref MessageRef) error

	// SendVideo uploads a local file as a playable video, with an optional
	// local thumbnail path (empty string for none).
	SendVideo(chatID int64, threadID int, videoPath, caption, thumbPath string) error

	// SendDocument uploads a local file as a generic attachment.
	SendDocument(chatID int64, threadID int, docPath, caption string) error
}
