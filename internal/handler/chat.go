package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/growmate/growmate/internal/middleware"
	"github.com/growmate/growmate/internal/session"
)

// ChatHandler serves the open-ended farm-advice chat. Each authenticated
// session keeps an ordered history of (speaker, message) pairs.
type ChatHandler struct {
	Advice AdviceGenerator
	Chats  session.ChatStore
	Log    *zap.SugaredLogger
}

func NewChatHandler(adv AdviceGenerator, chats session.ChatStore, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{Advice: adv, Chats: chats, Log: log}
}

type chatReq struct {
	Message string `json:"message"`
}

// Chat forwards the message to the advice client and records both sides of
// the exchange. The bot's reply is stored rendered, the way it is shown.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	}
	message := strings.TrimSpace(req.Message)
	email := middleware.Email(c)
	ctx := c.Request().Context()

	reply := h.Advice.Generate(ctx, message)
	formatted := renderMarkdown(reply)

	if err := h.Chats.Append(ctx, email, session.Message{Speaker: "You", Text: message}); err != nil {
		h.Log.Warnw("append chat message failed", "email", email, "err", err)
	}
	if err := h.Chats.Append(ctx, email, session.Message{Speaker: "Bot", Text: formatted}); err != nil {
		h.Log.Warnw("append chat message failed", "email", email, "err", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"response": formatted})
}

// History returns the session's chat history in append order.
func (h *ChatHandler) History(c echo.Context) error {
	email := middleware.Email(c)
	msgs, err := h.Chats.History(c.Request().Context(), email)
	if err != nil {
		h.Log.Errorw("read chat history failed", "email", email, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read history failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"chat_history": msgs})
}
