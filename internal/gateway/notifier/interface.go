package notifier

import "tf2automatic/internal/logger"

// TextNotifier delivers plain text to the bot administrators.
type TextNotifier interface {
	SendText(text string) error
}

// Log writes notifications to the process log. It stands in when no chat
// channel is configured.
type Log struct{}

func (Log) SendText(text string) error {
	logger.InfoBlock(text)
	return nil
}
