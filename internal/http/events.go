package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/project"
)

const (
	eventsWriteWait = 10 * time.Second
	eventsPongWait  = 60 * time.Second
	eventsPingEvery = (eventsPongWait * 9) / 10
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// handleEvents streams a job's progress as JSON messages. Events recorded
// before the connection are replayed first. The socket is closed after the
// final event.
func (s *Server) handleEvents(c echo.Context) error {
	job, ok := s.jobs.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	}

	conn, err := eventsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		return nil
	}
	defer conn.Close()

	history, ch, unsubscribe := job.Subscribe()
	defer unsubscribe()

	ctx := c.Request().Context()
	closed := make(chan struct{})
	go func() {
		// Drain client frames so pongs and close messages are processed.
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(p project.StepProgress) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
			return false
		}
		if err := conn.WriteJSON(p); err != nil {
			s.logger.Debug(ctx, "event stream write failed", zap.Error(err))
			return false
		}
		return true
	}

	for _, p := range history {
		if !send(p) {
			return nil
		}
		if p.Final {
			s.closeStream(conn)
			return nil
		}
	}
	if ch == nil {
		s.closeStream(conn)
		return nil
	}

	ticker := time.NewTicker(eventsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return nil
		case p, ok := <-ch:
			if !ok {
				s.closeStream(conn)
				return nil
			}
			if !send(p) {
				return nil
			}
			if p.Final {
				s.closeStream(conn)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventsWriteWait)); err != nil {
				return nil
			}
		}
	}
}

func (s *Server) closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(eventsWriteWait))
}
