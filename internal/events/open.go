package events

import (
	"fmt"

	"github.com/Skotchmaster/marketplace/pkg/config"
)

// Open builds the publisher selected by EVENTS_DRIVER.
func Open(cfg config.Config) (Publisher, error) {
	switch cfg.EventsDriver {
	case "", config.EventsNone:
		return Noop{}, nil
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
	case config.EventsAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.EventsDriver)
	}
}
