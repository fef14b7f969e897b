package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// NoticeSource hands out pending notices exactly once.
type NoticeSource interface {
	Drain() []domain.Notice
}

type NoticeHandler struct {
	source NoticeSource
}

func NewNoticeHandler(source NoticeSource) *NoticeHandler {
	return &NoticeHandler{source: source}
}

// Drain handles GET /v1/notices.
//
// @Summary      Take pending notices
// @Tags         notices
// @Produce      json
// @Success      200  {object}  noticesResponse
// @Router       /v1/notices [get]
func (h *NoticeHandler) Drain(c echo.Context) error {
	return c.JSON(http.StatusOK, noticesResponse{Notices: h.source.Drain()})
}
