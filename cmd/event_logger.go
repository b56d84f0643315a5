package cmd

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	sim "github.com/inference-sim/service-sim/sim"
)

// eventLogger writes one line per request event. It owns a dedicated logrus
// logger so event lines show regardless of the global --log level.
type eventLogger struct {
	log *logrus.Logger
}

func newEventLogger(w io.Writer, colors bool) *eventLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:     colors,
		DisableColors:   !colors,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	return &eventLogger{log: l}
}

// OnEvent implements sim.Observer. logrus serializes writes, so concurrent
// workers can share one eventLogger.
func (el *eventLogger) OnEvent(e sim.Event) {
	entry := el.log.WithFields(logrus.Fields{
		"id":    e.Request.ID,
		"class": e.Request.Class,
		"stage": e.Stage,
		"queue": e.QueueDepth,
	})
	switch e.Kind {
	case sim.EventGenerated:
		entry.WithField("generator", e.Request.GeneratorID).Info("request created")
	case sim.EventProcessed:
		entry.WithFields(logrus.Fields{
			"worker":  e.WorkerID,
			"latency": e.Request.Latency(e.Stage).Round(time.Millisecond),
		}).Info("request processed")
	case sim.EventForwarded:
		entry.WithField("worker", e.WorkerID).Info("request sent to additional service")
	}
}
