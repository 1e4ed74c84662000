package events

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Warn("ws upgrade failed", "err", err)
			return
		}

		_ = ws.SetWriteDeadline(time.Now().Add(hub.writeTimeout))
		if err := ws.WriteMessage(websocket.TextMessage, welcome("websocket", hub.Count()+1)); err != nil {
			hub.logger.Debug("ws welcome failed", "err", err)
			_ = ws.Close()
			return
		}
		hub.AddWS(ws)
		hub.logger.Info("ws watcher connected", "addr", c.ClientIP())

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		hub.logger.Info("ws watcher disconnected", "addr", c.ClientIP())
	}
}
