package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ray-remotestate/tableside/report"
	"github.com/ray-remotestate/tableside/utils"
)

const archivedHeader = "X-Report-Location"

// GenerateReport renders a PDF for {start_date, end_date} and streams it back.
// When an archiver is configured the PDF is also uploaded; a failed upload is
// logged and does not fail the request.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if r.ContentLength != 0 && !h.decode(w, r, &body) {
		return
	}

	rep, err := h.svc.Report(r.Context(), body.StartDate, body.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(rep, &buf); err != nil {
		h.fail(w, r, fmt.Errorf("render report: %w", err))
		return
	}

	name := rep.FileName()
	if h.archiver != nil {
		loc, err := h.archiver.Archive(r.Context(), name, buf.Bytes())
		if err != nil {
			h.log.WithError(err).WithField("report", name).Warn("report archive failed")
		} else {
			w.Header().Set(archivedHeader, loc)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.WithError(err).Debug("report download interrupted")
	}
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, err := h.svc.Analytics(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, map[string]any{"analytics": a})
}

func (h *Handler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	st := h.svc.SystemStatus(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"system":     st,
		"pdf":        true,
		"archiving":  h.archiver != nil,
		"staff_auth": h.auth.Secret != "",
	})
}
