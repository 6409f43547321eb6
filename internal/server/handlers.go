package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"playlistscanner/internal/model"
	"playlistscanner/internal/report"
	"playlistscanner/internal/service"
)

// ScanResponse ответ JSON API сканирования
type ScanResponse struct {
	ID        string                  `json:"id"`
	Query     string                  `json:"query"`
	Summary   model.ScanSummary       `json:"summary"`
	Entries   []*model.AggregateEntry `json:"entries"`
	Failures  []model.PlaylistFailure `json:"failures,omitempty"`
	ReportURL string                  `json:"report_url,omitempty"`
}

func newScanResponse(outcome *service.Outcome) ScanResponse {
	r := outcome.Result
	return ScanResponse{
		ID:        r.ID,
		Query:     r.Query,
		Summary:   r.Summary(),
		Entries:   r.OrderedEntries(),
		Failures:  r.Failures,
		ReportURL: outcome.View.PDFURL,
	}
}

// ProgressEvent событие прогресса для /api/scan/stream
type ProgressEvent struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, report.PageIndex, report.IndexView{Query: c.QueryParam("q")})
}

func (s *Server) handleScanPage(c echo.Context) error {
	query := c.QueryParam("q")
	outcome, err := s.deps.Scans.Scan(c.Request().Context(), query, nil)
	if errors.Is(err, service.ErrEmptyQuery) {
		return c.Render(http.StatusBadRequest, report.PageIndex, report.IndexView{Error: "Please enter an artist or track name."})
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, report.PageResult, outcome.View)
}

func (s *Server) handleScanAPI(c echo.Context) error {
	outcome, err := s.deps.Scans.Scan(c.Request().Context(), c.QueryParam("q"), nil)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, newScanResponse(outcome))
}

type scanReply struct {
	outcome *service.Outcome
	err     error
}

// handleScanStream отдает прогресс сканирования как server-sent events
func (s *Server) handleScanStream(c echo.Context) error {
	ctx := c.Request().Context()
	query := c.QueryParam("q")

	progress := make(chan ProgressEvent, 64)
	done := make(chan scanReply, 1)
	go func() {
		outcome, err := s.deps.Scans.Scan(ctx, query, func(d, total int) {
			select {
			case progress <- ProgressEvent{Done: d, Total: total}:
			default:
			}
		})
		done <- scanReply{outcome: outcome, err: err}
	}()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	for {
		select {
		case ev := <-progress:
			if err := writeEvent(res, "progress", ev); err != nil {
				return nil
			}
		case reply := <-done:
			// события прогресса, оставшиеся в буфере, уже неактуальны
			if reply.err != nil {
				_ = writeEvent(res, "error", map[string]string{"error": reply.err.Error()})
				return nil
			}
			_ = writeEvent(res, "result", newScanResponse(reply.outcome))
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func writeEvent(res *echo.Response, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	res.Flush()
	return nil
}

func (s *Server) handleReport(c echo.Context) error {
	id := c.Param("id")
	pdf, err := s.deps.Scans.Report(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="playlist_scan_%s.pdf"`, id))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) handleHistory(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := s.deps.Scans.History(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []model.ScanRun{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handlePlaylists(c echo.Context) error {
	view := s.deps.Playlists.Overview(c.Request().Context())
	if msg := c.QueryParam("msg"); msg != "" && view.Message == "" {
		view.Message = msg
	}
	return c.Render(http.StatusOK, report.PagePlaylists, view)
}

func (s *Server) handleAddPlaylist(c echo.Context) error {
	ref, err := s.deps.Playlists.Add(c.Request().Context(), c.FormValue("url"), c.FormValue("name"))
	if err != nil {
		s.logger.Warn("Failed to add playlist", zap.String("url", c.FormValue("url")), zap.Error(err))
		return mapError(err)
	}

	if c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON {
		return c.JSON(http.StatusCreated, ref)
	}
	return c.Redirect(http.StatusSeeOther, "/playlists?msg="+url.QueryEscape("Added "+ref.Name))
}

func (s *Server) handleRemovePlaylist(c echo.Context) error {
	provider, ok := model.ParseProvider(c.Param("provider"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown provider")
	}
	if err := s.deps.Playlists.Remove(provider, c.Param("id")); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Health.Health(c.Request().Context()))
}

func (s *Server) handleReady(c echo.Context) error {
	status, ok := s.deps.Health.Ready(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleMetrics(c echo.Context) error {
	if s.deps.Metrics == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{})
	}
	return c.JSON(http.StatusOK, s.deps.Metrics.GetStats())
}

// mapError сопоставляет ошибки предметной области с HTTP статусами
func mapError(err error) error {
	var validation model.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrReportNotFound), errors.Is(err, model.ErrPlaylistNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrPlaylistRegistered):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUnsupportedURL), errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
