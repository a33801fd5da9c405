package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/chainboard/chainboard/internal/metrics"
	"github.com/chainboard/chainboard/pkg/model"
)

const (
	SubjectCatalogRefreshed  = "evt.catalog.refreshed.v1"
	SubjectAssessmentCreated = "evt.assessment.created.v1"
)

// Publisher wraps a NATS connection and publishes canonical event envelopes.
type Publisher struct {
	logger  *zap.Logger
	nc      *nats.Conn
	js      nats.JetStreamContext
	service string
}

// New creates a Publisher with JetStream enabled.
func New(logger *zap.Logger, nc *nats.Conn, service string) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	return &Publisher{
		logger:  logger,
		nc:      nc,
		js:      js,
		service: service,
	}, nil
}

// PublishEnvelope serializes and publishes an event envelope.
func (p *Publisher) PublishEnvelope(_ context.Context, subject string, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg); err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncNATSPublishError(subject)
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("event_type", env.EventType))
	return nil
}

// CatalogRefreshedPayload describes a completed catalog refresh.
type CatalogRefreshedPayload struct {
	VenueCount  int       `json:"venue_count"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// PublishCatalogRefreshed emits catalog.refreshed events.
func (p *Publisher) PublishCatalogRefreshed(ctx context.Context, venueCount int) error {
	env, err := model.NewEnvelope(SubjectCatalogRefreshed, "catalog.refreshed", CatalogRefreshedPayload{
		VenueCount:  venueCount,
		RefreshedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.PublishEnvelope(ctx, SubjectCatalogRefreshed, env)
}

// PublishAssessmentCreated emits assessment.created events.
func (p *Publisher) PublishAssessmentCreated(ctx context.Context, a *model.Assessment) error {
	env, err := model.NewEnvelope(SubjectAssessmentCreated, "assessment.created", a)
	if err != nil {
		return err
	}
	return p.PublishEnvelope(ctx, SubjectAssessmentCreated, env)
}

func (p *Publisher) Close() {
	if p.nc != nil && p.nc.IsConnected() {
		p.nc.Close()
	}
}
