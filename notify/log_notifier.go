package notify

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	var evt *zerolog.Event
	switch n.Level {
	case LevelError, LevelWarning:
		evt = log.Warn()
	default:
		evt = log.Info()
	}
	evt.Str("kind", string(n.Level)).
		Str("title", n.Title).
		Str("description", n.Description).
		Msg("notification")
}
