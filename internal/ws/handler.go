// Package ws streams live game snapshots to connected scoreboards.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"rummitally/internal/game"
)

type snapshotMessage struct {
	Type  string         `json:"type"` // "StateSnapshot"
	State game.GameState `json:"state"`
}

// Handler upgrades the connection, sends the current snapshot and then
// one message per committed state change. The socket is one-way; client
// frames are read only to notice closes.
func Handler(store *game.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx := r.Context()

		out := make(chan game.GameState, 8)
		store.Subscribe(out)
		defer store.Unsubscribe(out)

		if err := writeSnapshot(ctx, conn, store.State()); err != nil {
			return
		}

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-closed:
				return
			case snap := <-out:
				if err := writeSnapshot(ctx, conn, snap); err != nil {
					return
				}
			}
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap game.GameState) error {
	payload, err := json.Marshal(snapshotMessage{Type: "StateSnapshot", State: snap})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
