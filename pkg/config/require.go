package config

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalid = errors.New("invalid config")

const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsAMQP  = "amqp"
)

func (c Config) Validate() error {
	var errs []error

	errs = append(errs, nonEmpty(c.JWTAccessSecret, "JWT_SECRET"))
	errs = append(errs, nonEmpty(c.JWTRefreshSecret, "JWT_REFRESH_SECRET"))

	switch c.DBDriver {
	case "postgres":
		errs = append(errs, nonEmpty(c.DatabaseURL, "DATABASE_URL"))
	case "sqlite":
	default:
		errs = append(errs, fmt.Errorf("%w: DB_DRIVER must be postgres or sqlite, got %q", ErrInvalid, c.DBDriver))
	}

	switch c.EventsDriver {
	case EventsNone:
	case EventsKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, fmt.Errorf("%w: missing required env KAFKA_BROKERS", ErrInvalid))
		}
	case EventsAMQP:
		errs = append(errs, nonEmpty(c.AMQPURL, "AMQP_URL"))
	default:
		errs = append(errs, fmt.Errorf("%w: EVENTS_DRIVER must be one of none, kafka, amqp, got %q", ErrInvalid, c.EventsDriver))
	}

	if c.LockTimeout <= 0 || c.CheckoutTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: LOCK_TIMEOUT and CHECKOUT_TIMEOUT must be positive", ErrInvalid))
	}

	errs = slices.DeleteFunc(errs, func(err error) bool { return err == nil })
	return errors.Join(errs...)
}

func nonEmpty(value, envName string) error {
	if value == "" {
		return fmt.Errorf("%w: missing required env %s", ErrInvalid, envName)
	}
	return nil
}
