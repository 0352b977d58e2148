package handler

import (
	"errors"
	"net/http"

	"notifier/internal/application/dto"
	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// TimerHandler serves the timer settings and scheduler control endpoints.
type TimerHandler struct {
	settings service.SettingsService
	host     service.SchedulerHost
	log      logger.Logger
}

// NewTimerHandler creates a new TimerHandler.
func NewTimerHandler(settings service.SettingsService, host service.SchedulerHost, log logger.Logger) *TimerHandler {
	return &TimerHandler{settings: settings, host: host, log: log}
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetTimer returns the persisted timer option.
func (h *TimerHandler) GetTimer(c echo.Context) error {
	opt, err := h.settings.GetTimerOption(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, timerResponse(opt))
}

// PutTimer persists a new timer option and reconfigures the scheduler.
func (h *TimerHandler) PutTimer(c echo.Context) error {
	var req dto.SetTimerOptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	opt, err := h.settings.SetTimerOption(c.Request().Context(), req.TimerOption)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, timerResponse(opt))
}

// Reconfigure hands the message to the scheduler as is. Unknown labels disable it.
func (h *TimerHandler) Reconfigure(c echo.Context) error {
	var msg dto.ReconfigurationMessage
	if err := c.Bind(&msg); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	h.host.Dispatch(msg)
	return c.NoContent(http.StatusAccepted)
}

// Kick fires a notification now and restarts the cadence from it.
func (h *TimerHandler) Kick(c echo.Context) error {
	if err := h.host.Kick(); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// Status reports the lifecycle phase and the current scheduler snapshot.
func (h *TimerHandler) Status(c echo.Context) error {
	st, err := h.host.Status(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func timerResponse(opt constant.TimerOption) dto.TimerSettingResponse {
	options := make([]string, 0, len(constant.TimerOptions()))
	for _, o := range constant.TimerOptions() {
		options = append(options, o.String())
	}
	return dto.TimerSettingResponse{
		TimerOption: opt.String(),
		CadenceMs:   opt.Cadence().Millis(),
		Options:     options,
	}
}

func (h *TimerHandler) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, appErrors.ErrInvalidTimerOption):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, appErrors.ErrSchedulerStopped):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.log.Error("Request failed", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
}
