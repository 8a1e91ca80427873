// Package events publishes pipeline progress.
//
// Each StepProgress is sent as JSON to <prefix>.<projectID>.progress so a
// subscriber can follow one project with a plain subject or all of them with
// <prefix>.*.progress.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// DefaultSubjectPrefix is used when the configured prefix is empty.
const DefaultSubjectPrefix = "airo.projects"

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Publisher sends progress events.
type Publisher interface {
	Publish(ctx context.Context, projectID string, p project.StepProgress) error
	Close() error
}

// Subject returns the progress subject of a project.
func Subject(prefix, projectID string) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.%s.progress", prefix, projectID)
}

// New returns a NATS publisher, or a NopPublisher when events are disabled.
func New(cfg config.EventsConfig, logger *logging.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return NopPublisher{}, nil
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("airo"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}
	p := NewNATSPublisher(nc, cfg.SubjectPrefix, logger)
	p.owned = true
	return p, nil
}

// NATSPublisher publishes over a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
	owned  bool
}

// NewNATSPublisher wraps an existing connection. The caller keeps ownership of
// nc; Close only flushes it.
func NewNATSPublisher(nc *nats.Conn, prefix string, logger *logging.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &NATSPublisher{nc: nc, prefix: prefix, logger: logger.Named("events")}
}

// Publish sends p to the project's subject.
func (p *NATSPublisher) Publish(ctx context.Context, projectID string, sp project.StepProgress) error {
	if p.nc.IsClosed() {
		return ErrClosed
	}
	if sp.ProjectID == "" {
		sp.ProjectID = projectID
	}
	data, err := json.Marshal(sp)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	subject := Subject(p.prefix, projectID)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Trace(ctx, "progress published",
		zap.String("subject", subject),
		zap.String("step", string(sp.Step)),
		zap.String("status", string(sp.Status)))
	if sp.Final {
		// Make sure the last event leaves the process before the caller exits.
		if err := p.nc.FlushWithContext(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}

// Close flushes pending messages and closes the connection when New opened it.
func (p *NATSPublisher) Close() error {
	if p.nc.IsClosed() {
		return nil
	}
	if p.owned {
		return p.nc.Drain()
	}
	return p.nc.Flush()
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, project.StepProgress) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

// Multi fans events out to several publishers. All are attempted; the errors
// are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, projectID string, p project.StepProgress) error {
	var errs []error
	for _, pub := range m {
		if err := pub.Publish(ctx, projectID, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, pub := range m {
		errs = append(errs, pub.Close())
	}
	return errors.Join(errs...)
}
