package handler

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"

	"framenote-backend/internal/hub"
	"framenote-backend/internal/model"
	"framenote-backend/pkg/logger"
)

// CommentWSHandler pushes hub deliveries for one project over a websocket.
// One connection = one hub subscriber; closing the socket unsubscribes.
type CommentWSHandler struct {
	hub          *hub.Hub
	writeTimeout time.Duration
}

// NewCommentWSHandler creates a CommentWSHandler
func NewCommentWSHandler(h *hub.Hub, writeTimeout time.Duration) *CommentWSHandler {
	return &CommentWSHandler{hub: h, writeTimeout: writeTimeout}
}

// CommentsMessage outbound state snapshot
type CommentsMessage struct {
	Type     string            `json:"type"` // always "comments"
	Comments []CommentResponse `json:"comments"`
}

// HandleWebSocket streams comment state until the client disconnects
func (h *CommentWSHandler) HandleWebSocket(conn *websocket.Conn) {
	projectID := conn.Locals("projectID").(int64)
	userID, _ := conn.Locals("userID").(int64)

	// Buffered; a slow client drops intermediate snapshots and the next
	// delivery supersedes them. The callback must never block the hub.
	send := make(chan []model.Comment, 8)

	unsubscribe := h.hub.Subscribe(projectID, func(comments []model.Comment) {
		select {
		case send <- comments:
		default:
		}
	})
	defer unsubscribe()

	logger.Sugar.Infow("comment stream opened", "project_id", projectID, "user_id", userID)

	// Read pump exists only to notice the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			logger.Sugar.Infow("comment stream closed", "project_id", projectID, "user_id", userID)
			return

		case comments := <-send:
			resp := make([]CommentResponse, 0, len(comments))
			for i := range comments {
				resp = append(resp, commentResponse(&comments[i]))
			}

			payload, err := json.Marshal(CommentsMessage{Type: "comments", Comments: resp})
			if err != nil {
				logger.Sugar.Errorw("marshal comments failed", "error", err)
				continue
			}

			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
