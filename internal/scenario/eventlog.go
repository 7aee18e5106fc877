package scenario

import (
	"github.com/zeusync/simphys/internal/core/events/bus"
	"github.com/zeusync/simphys/internal/core/observability/log"
)

// EventLog writes every event published on a bus to the logger at debug level.
// Registering it as an observer also turns on the bus metrics.
type EventLog struct {
	log log.Log
}

// NewEventLog attaches a new EventLog to eventBus.
func NewEventLog(logger log.Log, eventBus bus.EventBus) *EventLog {
	if logger == nil {
		logger = log.NewNop()
	}
	l := &EventLog{log: logger.Named("events")}
	eventBus.AddObserver(l)
	return l
}

func (l *EventLog) OnPublish(topic, eventType string, event bus.Event) {
	if l.log.GetLevel() > log.LevelDebug {
		return
	}
	fields := []log.Field{
		log.String("topic", topic),
		log.String("type", eventType),
	}
	if runID, ok := event.Metadata()["run_id"].(string); ok {
		fields = append(fields, log.String("run_id", runID))
	}
	switch data := event.Data().(type) {
	case Collision:
		fields = append(fields,
			log.Uint64("step", data.Step),
			log.String("self", data.Self),
			log.String("other", data.Other),
		)
	case ProbeResult:
		fields = append(fields,
			log.String("probe", data.Name),
			log.Int("step", data.Step),
			log.Bool("hit", data.Hit),
		)
		if data.Hit {
			fields = append(fields, log.String("entity", data.Entity), log.Float64("distance", data.Distance))
		}
	case error:
		fields = append(fields, log.Error(data))
	}
	l.log.Debug("event", fields...)
}

func (l *EventLog) OnDelivered(string, string, int, error, int64) {}
