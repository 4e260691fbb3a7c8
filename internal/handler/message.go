package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/queue"
	"github.com/nordwell/studio-api/internal/repository"
	queue_publisher "github.com/nordwell/studio-api/internal/service"
)

// MessageHandler takes contact form submissions from anyone and exposes
// the inbox to admins.
type MessageHandler struct {
	Messages *repository.MessageRepo
}

func NewMessageHandler(messages *repository.MessageRepo) *MessageHandler {
	return &MessageHandler{Messages: messages}
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Contact stores a message and announces it on the broker.
func (h *MessageHandler) Contact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || strings.TrimSpace(req.Body) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and body required"})
	}

	m := model.Message{Name: req.Name, Email: req.Email, Subject: req.Subject, Body: req.Body}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Messages.Create(ctx, &m)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store message failed"})
	}
	m.ID = id

	_ = queue_publisher.PublishMessageReceived(ctx, queue.MessageReceivedEvent{
		MessageID:  id,
		Name:       m.Name,
		Email:      m.Email,
		Subject:    m.Subject,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": id, "message": "thanks, we will be in touch"})
}

// List returns the inbox, unread first (admin).
func (h *MessageHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	msgs, err := h.Messages.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list messages failed"})
	}
	return c.JSON(http.StatusOK, msgs)
}

// Get returns one message and marks it read (admin). Reading is what
// flips the flag; there is no separate acknowledgement step.
func (h *MessageHandler) Get(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load message failed"})
	}
	if !m.Read {
		if err := h.Messages.MarkRead(ctx, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
		}
		m.Read = true
	}
	return c.JSON(http.StatusOK, m)
}

// Delete removes a message (admin).
func (h *MessageHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Messages.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete message failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
