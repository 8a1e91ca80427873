package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}
	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})
	return server
}

func connect(t *testing.T, server *natsserver.Server) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func receive(t *testing.T, ch chan *nats.Msg) (*nats.Msg, project.StepProgress) {
	t.Helper()
	select {
	case msg := <-ch:
		var p project.StepProgress
		require.NoError(t, json.Unmarshal(msg.Data, &p))
		return msg, p
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for progress event")
		return nil, project.StepProgress{}
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "airo.projects.p1.progress", Subject("", "p1"))
	assert.Equal(t, "ci.p1.progress", Subject("ci", "p1"))
}

func TestNATSPublisher_Publish(t *testing.T) {
	server := startTestNATSServer(t)
	sub := connect(t, server)
	ch := make(chan *nats.Msg, 4)
	s, err := sub.ChanSubscribe("airo.projects.*.progress", ch)
	require.NoError(t, err)
	defer s.Unsubscribe() //nolint:errcheck
	require.NoError(t, sub.Flush())

	logger := logging.NewTestLogger()
	pub := NewNATSPublisher(connect(t, server), "", logger.Logger)
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, "proj-1", project.StepProgress{
		Step: project.StepComponents, Status: project.StatusInProgress, Component: "store", Percentage: 40,
	}))
	require.NoError(t, pub.Publish(ctx, "proj-1", project.StepProgress{
		Step: project.StepPersist, Status: project.StatusCompleted, Percentage: 100, Final: true,
	}))

	msg, first := receive(t, ch)
	assert.Equal(t, "airo.projects.proj-1.progress", msg.Subject)
	assert.Equal(t, "proj-1", first.ProjectID)
	assert.Equal(t, project.StepComponents, first.Step)
	assert.Equal(t, "store", first.Component)

	_, last := receive(t, ch)
	assert.True(t, last.Final)
	assert.Equal(t, 100, last.Percentage)
}

func TestNATSPublisher_Closed(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)
	pub := NewNATSPublisher(nc, "x", nil)

	nc.Close()
	err := pub.Publish(context.Background(), "p", project.StepProgress{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, pub.Close())
}

func TestNew(t *testing.T) {
	pub, err := New(config.EventsConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, pub)

	server := startTestNATSServer(t)
	pub, err = New(config.EventsConfig{Enabled: true, URL: server.ClientURL(), SubjectPrefix: "test"}, nil)
	require.NoError(t, err)
	require.IsType(t, &NATSPublisher{}, pub)

	sub := connect(t, server)
	ch := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("test.abc.progress", ch)
	require.NoError(t, err)
	defer s.Unsubscribe() //nolint:errcheck
	require.NoError(t, sub.Flush())

	require.NoError(t, pub.Publish(context.Background(), "abc", project.StepProgress{Step: project.StepArchitect, Final: true}))
	_, p := receive(t, ch)
	assert.Equal(t, project.StepArchitect, p.Step)
	assert.NoError(t, pub.Close())
}

type failingPublisher struct{ NopPublisher }

func (failingPublisher) Publish(context.Context, string, project.StepProgress) error {
	return errors.New("boom")
}

type countingPublisher struct {
	NopPublisher
	n int
}

func (c *countingPublisher) Publish(context.Context, string, project.StepProgress) error {
	c.n++
	return nil
}

func TestMulti(t *testing.T) {
	counter := &countingPublisher{}
	m := Multi{failingPublisher{}, counter}

	err := m.Publish(context.Background(), "p", project.StepProgress{})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, counter.n)
	assert.NoError(t, m.Close())
}
