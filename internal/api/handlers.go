package api

import (
	"bytes"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/legalhold/internal/render"
)

// ExportQueuedMessage is the body returned when an export run is enqueued.
const ExportQueuedMessage = "Export task has been queued"

func (s *Server) getTranscript(c echo.Context) error {
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "json" && format != "markdown" {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be html, json or markdown")
	}

	doc, err := s.deps.Transcripts.Transcript(c.Request().Context(), conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID.String()).Msg("Failed to build transcript")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build transcript")
	}

	var buf bytes.Buffer
	switch format {
	case "json":
		return c.JSON(http.StatusOK, doc)
	case "markdown":
		if err := render.TranscriptMarkdown(&buf, doc); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render transcript")
		}
		return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
	default:
		if err := render.TranscriptHTML(&buf, doc); err != nil {
			log.Error().Err(err).Str("conversation_id", conversationID.String()).Msg("Failed to render transcript")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to render transcript")
		}
		return c.HTMLBlob(http.StatusOK, buf.Bytes())
	}
}

func (s *Server) getIndex(c echo.Context) error {
	convs, err := s.deps.Conversations.ListConversations(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list conversations")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}

	var buf bytes.Buffer
	if err := render.IndexHTML(&buf, convs); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render index")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) listConversations(c echo.Context) error {
	convs, err := s.deps.Conversations.ListConversations(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list conversations")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}
	return c.JSON(http.StatusOK, convs)
}

func (s *Server) triggerExport(c echo.Context) error {
	if err := s.deps.Exports.QueueExportJob(c.Request().Context(), "manual"); err != nil {
		log.Error().Err(err).Msg("Failed to queue export job")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to queue export")
	}
	return c.String(http.StatusAccepted, ExportQueuedMessage)
}
