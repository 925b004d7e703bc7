package service

import (
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// SyncListenerFunc adapts a function to SyncListener.
type SyncListenerFunc func(event models.SyncEvent)

// OnEvent implements SyncListener.
func (f SyncListenerFunc) OnEvent(event models.SyncEvent) {
	f(event)
}

type multiListener []SyncListener

// MultiListener fans every event out to listeners in argument order. Nil
// listeners are skipped.
func MultiListener(listeners ...SyncListener) SyncListener {
	out := make(multiListener, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m multiListener) OnEvent(event models.SyncEvent) {
	for _, l := range m {
		l.OnEvent(event)
	}
}

type loggingListener struct {
	logger *logger.Logger
}

// NewLoggingListener returns a SyncListener writing every event to logger.
// Progress is logged at debug level, failures at error level.
func NewLoggingListener(logger *logger.Logger) SyncListener {
	return &loggingListener{logger: logger}
}

func (l *loggingListener) OnEvent(event models.SyncEvent) {
	switch event.Kind {
	case models.EventStarted:
		l.logger.Info().
			Str("folder_id", event.Folder).
			Msg("sync started")
	case models.EventProgress:
		l.logger.Debug().
			Str("folder_id", event.Folder).
			Int("completed", event.Completed).
			Int("total", event.Total).
			Msg("sync progress")
	case models.EventFinished:
		l.logger.Info().
			Str("folder_id", event.Folder).
			Msg("sync finished")
	case models.EventFailed:
		l.logger.Err(event.Err).
			Str("folder_id", event.Folder).
			Msg("sync failed")
	}
}
