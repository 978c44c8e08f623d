package events

import (
	"fmt"

	"github.com/JulianaCelis/hatsusound-backend/internal/config"
)

// New returns the publisher selected by cfg.Driver.
func New(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka driver needs at least one broker")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "rabbitmq":
		return NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	case "", "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
