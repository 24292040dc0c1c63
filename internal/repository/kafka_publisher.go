package repository

import (
	"context"
	"errors"
	"strconv"

	"CourtEdge/internal/domain/models"
	domrepo "CourtEdge/internal/domain/repository"
)

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaMatchupPublisher writes matchup events keyed by home team id so one
// team's events stay ordered on a partition.
type KafkaMatchupPublisher struct {
	producer MessagePublisher
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaMatchupPublisher)(nil)

func NewKafkaMatchupPublisher(p MessagePublisher, topic string) *KafkaMatchupPublisher {
	return &KafkaMatchupPublisher{producer: p, topic: topic}
}

func (k *KafkaMatchupPublisher) PublishMatchup(ctx context.Context, ev models.MatchupEvent) error {
	key := []byte(strconv.FormatInt(ev.HomeTeamID, 10))
	return k.producer.Publish(ctx, k.topic, key, ev)
}

func (k *KafkaMatchupPublisher) Close() error { return k.producer.Close() }

// FanoutPublisher delivers each event to every publisher and joins their errors.
type FanoutPublisher []domrepo.EventPublisher

var _ domrepo.EventPublisher = FanoutPublisher(nil)

func (f FanoutPublisher) PublishMatchup(ctx context.Context, ev models.MatchupEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishMatchup(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f FanoutPublisher) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
