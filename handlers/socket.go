// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/classpoll/auth"
	"github.com/danielhkuo/classpoll/live"
	"github.com/danielhkuo/classpoll/middleware"
	"github.com/danielhkuo/classpoll/models"
)

const (
	pingPeriod   = 15 * time.Second
	pongWait     = 40 * time.Second
	writeWait    = 10 * time.Second
	maxFrameSize = 64 * 1024
)

type SocketHandler struct {
	engine   *live.Engine
	upgrader websocket.Upgrader
}

// NewSocketHandler accepts upgrades from allowedOrigin, or from anywhere when it is empty
func NewSocketHandler(engine *live.Engine, allowedOrigin string) *SocketHandler {
	return &SocketHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Serve handles GET /ws
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	connID, err := auth.GenerateConnectionID()
	if err != nil {
		slog.Error("failed to generate connection id", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	client := h.engine.Hub().Subscribe(connID)

	done := make(chan struct{})
	go h.readLoop(ctx, conn, connID, done)

	// The reader has to be gone before the connection is forgotten,
	// otherwise a late register would bind a dead connection.
	defer func() {
		conn.Close()
		<-done
		h.engine.Hub().Unsubscribe(connID)
		h.engine.Disconnect(ctx, connID)
	}()

	slog.Info("socket connected", "conn_id", connID, "remote", middleware.GetClientIP(r))

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("socket write failed", "conn_id", connID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			slog.Info("socket disconnected", "conn_id", connID)
			return
		}
	}
}

// readLoop decodes commands until the client goes away
func (h *SocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, connID string, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("socket read failed", "conn_id", connID, "error", err)
			}
			return
		}

		var cmd models.Command
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Type == "" {
			h.engine.SendError(connID, "Invalid message format")
			continue
		}

		if err := h.dispatch(ctx, connID, cmd); err != nil {
			h.engine.SendError(connID, socketMessage(err))
		}
	}
}

// dispatch runs one command on behalf of connID
func (h *SocketHandler) dispatch(ctx context.Context, connID string, cmd models.Command) error {
	if cmd.Type == models.CommandRegister {
		var data models.RegisterUserRequest
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		_, err := h.engine.Register(ctx, connID, data.UserID, data.Name, data.Role)
		return err
	}

	p, registered := h.engine.Presence().Lookup(connID)

	switch cmd.Type {
	case models.CommandCreatePoll:
		if err := auth.Authorize(p, registered, models.RoleTeacher); err != nil {
			return err
		}
		var data models.CreatePollRequest
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		_, err := h.engine.CreatePoll(ctx, data)
		return err

	case models.CommandStartPoll:
		if err := auth.Authorize(p, registered, models.RoleTeacher); err != nil {
			return err
		}
		var data models.PollIDData
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		_, err := h.engine.StartPoll(ctx, data.PollID)
		return err

	case models.CommandCompletePoll:
		if err := auth.Authorize(p, registered, models.RoleTeacher); err != nil {
			return err
		}
		var data models.PollIDData
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		_, err := h.engine.CompletePoll(ctx, data.PollID)
		return err

	case models.CommandKickStudent:
		if err := auth.Authorize(p, registered, models.RoleTeacher); err != nil {
			return err
		}
		var data models.KickStudentData
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		user, err := h.engine.KickStudent(ctx, data.StudentID)
		if err != nil {
			return err
		}
		h.engine.Hub().SendTo(connID, models.Event{
			Type: models.EventKickSuccess,
			Payload: models.KickSuccessPayload{
				StudentID: user.UserID,
				Message:   fmt.Sprintf("%s has been removed", user.Name),
			},
		})
		return nil

	case models.CommandSubmitVote:
		if err := auth.Authorize(p, registered, models.RoleStudent); err != nil {
			return err
		}
		var data models.SubmitVoteData
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		if data.OptionIndex == nil {
			return models.ValidationError("optionIndex is required")
		}
		_, err := h.engine.SubmitVoteAs(ctx, connID, data.PollID, *data.OptionIndex)
		return err

	case models.CommandGetPollResults:
		if err := auth.Authorize(p, registered, models.RoleTeacher, models.RoleStudent); err != nil {
			return err
		}
		var data models.PollIDData
		if err := decodeData(cmd.Data, &data); err != nil {
			return err
		}
		return h.engine.SendResults(ctx, connID, data.PollID)

	case models.CommandGetState:
		if err := auth.Authorize(p, registered, models.RoleTeacher, models.RoleStudent); err != nil {
			return err
		}
		return h.engine.SendState(ctx, connID)

	default:
		return models.ValidationError("Unknown command: %s", cmd.Type)
	}
}

func decodeData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return models.ValidationError("Missing command data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return models.ValidationError("Invalid command data")
	}
	return nil
}

// socketMessage turns a dispatch error into the text sent to the client
func socketMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrNotRegistered):
		return "Please register first"
	case errors.Is(err, auth.ErrUnauthorized):
		return "Unauthorized"
	case models.IsDomainError(err):
		return err.Error()
	default:
		slog.Error("socket command failed", "error", err)
		return "Internal server error"
	}
}
