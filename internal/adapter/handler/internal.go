package handler

import (
	"log/slog"
	"net/http"

	"profile-hub/internal/domain"
	"profile-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// InternalHandler handles internal service-to-service requests.
type InternalHandler struct {
	ingest *usecase.IngestEvent
	lookup *usecase.LookupProfile
	logger *slog.Logger
}

// NewInternalHandler creates a new internal handler.
func NewInternalHandler(ingest *usecase.IngestEvent, lookup *usecase.LookupProfile, l *slog.Logger) *InternalHandler {
	return &InternalHandler{ingest: ingest, lookup: lookup, logger: l}
}

// eventRequest is the body of POST /internal/events.
type eventRequest struct {
	ID      int    `json:"id"`
	Outcome int    `json:"outcome"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type eventAccepted struct {
	ActivityID string `json:"activity_id"`
}

// HandleEvent raises an event reported by another service. The session is
// taken from the Kratos cookie when one is forwarded.
func (h *InternalHandler) HandleEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event body")
	}
	if req.ID == 0 || req.Outcome == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "event id and outcome are required")
	}

	var sessionID string
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	ctx := c.Request().Context()
	evt := domain.NewLoginEvent(domain.EventID(req.ID), domain.Outcome(req.Outcome), req.Name, req.Message)
	h.ingest.Execute(ctx, evt, sessionID)

	h.logger.DebugContext(ctx, "event ingested", "event_id", req.ID, "activity_id", evt.ActivityID, "remote_addr", c.RealIP())
	return c.JSON(http.StatusAccepted, eventAccepted{ActivityID: evt.ActivityID})
}

// HandleProfile returns the cached profile for the :subject path parameter.
func (h *InternalHandler) HandleProfile(c echo.Context) error {
	profile, err := h.lookup.Execute(c.Request().Context(), c.Param("subject"))
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSONBlob(http.StatusOK, profile)
}
