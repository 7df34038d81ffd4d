package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reportd/internal/authn"
	"github.com/fyrsmithlabs/reportd/internal/deck"
	"github.com/fyrsmithlabs/reportd/internal/export"
	"github.com/fyrsmithlabs/reportd/internal/report"
)

// maxDeckSize bounds deck uploads.
const maxDeckSize = 20 << 20 // 20MB

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ValidationErrorResponse carries the field-level issues that blocked a
// save or publish.
type ValidationErrorResponse struct {
	Error  string        `json:"error"`
	Issues report.Issues `json:"issues"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, s.projects.All())
}

func (s *Server) handleListReports(c echo.Context) error {
	claims := authn.CurrentUser(c)
	reports, err := s.store.Reports().ListByOwner(c.Request().Context(), claims.Subject)
	if err != nil {
		return storeError(err)
	}
	if reports == nil {
		reports = []report.WeeklyReport{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (s *Server) handleGetReport(c echo.Context) error {
	claims := authn.CurrentUser(c)
	r, err := s.store.Reports().Get(c.Request().Context(), c.Param("id"), claims.Subject)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, r)
}

// handleSaveReport upserts a report. Drafts pass the permissive gate;
// publishing or approving additionally passes the strict gate.
func (s *Server) handleSaveReport(c echo.Context) error {
	claims := authn.CurrentUser(c)

	var r report.WeeklyReport
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = report.StatusDraft
	}
	r.CreatedBy = claims.Subject
	r.UpdatedBy = claims.Subject

	if issues := r.ValidateDraft(); !issues.OK() {
		return c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "report failed validation", Issues: issues})
	}
	if r.Status != report.StatusDraft {
		if issues := r.ValidatePublish(); !issues.OK() {
			return c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "report is not ready to publish", Issues: issues})
		}
		if r.PublishedBy == "" {
			r.PublishedBy = claims.Subject
		}
	}

	if err := s.store.Reports().Upsert(c.Request().Context(), &r); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, &r)
}

func (s *Server) handleDeleteReport(c echo.Context) error {
	claims := authn.CurrentUser(c)
	if err := s.store.Reports().Delete(c.Request().Context(), c.Param("id"), claims.Subject); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handleExportReport streams the report as a deck or a workbook,
// selected by the format query parameter (default pptx).
func (s *Server) handleExportReport(c echo.Context) error {
	claims := authn.CurrentUser(c)
	ctx := c.Request().Context()

	r, err := s.store.Reports().Get(ctx, c.Param("id"), claims.Subject)
	if err != nil {
		return storeError(err)
	}
	rc, err := s.resolveContext(ctx, claims.Subject)
	if err != nil {
		return storeError(err)
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "pptx"
	}
	filename := fmt.Sprintf("weekly-report-%d-W%02d.%s", r.Year, r.ISOWeek, format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "pptx":
		blob, err := s.renderer.Render(r, rc)
		if err != nil {
			return fmt.Errorf("render deck: %w", err)
		}
		exportsTotal.WithLabelValues("pptx").Inc()
		return c.Blob(http.StatusOK, pptxContentType, blob)

	case "xlsx":
		wb, err := export.Workbook(r, rc)
		if err != nil {
			return fmt.Errorf("build workbook: %w", err)
		}
		buf, err := wb.WriteToBuffer()
		if err != nil {
			return fmt.Errorf("serialize workbook: %w", err)
		}
		exportsTotal.WithLabelValues("xlsx").Inc()
		return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())

	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown export format, use pptx or xlsx")
	}
}

// handleImportReport merges recognized sections of an uploaded deck
// into a report. With a reportId form field the upload lands on that
// report; otherwise a fresh draft is created.
func (s *Server) handleImportReport(c echo.Context) error {
	claims := authn.CurrentUser(c)
	ctx := c.Request().Context()

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fh.Size > maxDeckSize {
		importsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "deck exceeds the 20MB limit")
	}
	if err := deck.CheckFilename(fh.Filename); err != nil {
		importsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxDeckSize+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxDeckSize {
		importsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "deck exceeds the 20MB limit")
	}

	texts, err := deck.ExtractSlideTexts(data)
	if err != nil {
		if errors.Is(err, deck.ErrLegacyFormat) || errors.Is(err, deck.ErrNotArchive) || errors.Is(err, deck.ErrUnsupportedFormat) {
			importsTotal.WithLabelValues("rejected").Inc()
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		}
		importsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("extract slides: %w", err)
	}

	r, err := s.importTarget(c, claims.Subject)
	if err != nil {
		return err
	}

	rc, err := s.resolveContext(ctx, claims.Subject)
	if err != nil {
		return storeError(err)
	}
	partial := s.codecs.ParseSlides(texts, rc)
	partial.Apply(r)
	r.UpdatedBy = claims.Subject

	if err := s.store.Reports().Upsert(ctx, r); err != nil {
		importsTotal.WithLabelValues("error").Inc()
		return storeError(err)
	}

	importsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("imported deck",
		zap.String("report_id", r.ID),
		zap.Int("slides", len(texts)),
	)
	return c.JSON(http.StatusOK, r)
}

// importTarget loads the report named by the reportId form field, or
// builds a fresh ALL-scope draft covering the current week.
func (s *Server) importTarget(c echo.Context, userID string) (*report.WeeklyReport, error) {
	if id := c.FormValue("reportId"); id != "" {
		r, err := s.store.Reports().Get(c.Request().Context(), id, userID)
		if err != nil {
			return nil, storeError(err)
		}
		return r, nil
	}

	monday := report.MondayOf(time.Now().UTC())
	return &report.WeeklyReport{
		ID:        uuid.NewString(),
		Scope:     report.ScopeAll,
		Status:    report.StatusDraft,
		StartDate: monday.Format(report.DateLayout),
		EndDate:   monday.AddDate(0, 0, 4).Format(report.DateLayout),
		CreatedBy: userID,
		UpdatedBy: userID,
	}, nil
}
