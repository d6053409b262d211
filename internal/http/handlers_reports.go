package http

import (
	"net/http"

	"billreminder/internal/log"
	"billreminder/internal/middleware/auth"
)

// handleDashboard answers anonymous callers with a placeholder instead of
// a 401 so the landing view can render.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.OwnerFrom(r.Context())
	if !ok {
		NewJSONResponse().JSON(anonymousDashboard{Authenticated: false}).Write(w)
		return
	}

	today := s.today()
	d, err := s.bills.Dashboard(r.Context(), owner.ID, today)
	if err != nil {
		s.writeError(w, r, log.OpDashboard, err)
		return
	}
	NewJSONResponse().JSON(newDashboardResponse(d, today)).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())
	rng := ParseDateRange(r.URL.Query(), s.today())

	report, err := s.bills.Report(r.Context(), owner.ID, rng)
	if err != nil {
		s.writeError(w, r, log.OpReport, err)
		return
	}
	NewJSONResponse().JSON(newReportResponse(report)).Write(w)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFrom(r.Context())
	rng := ParseDateRange(r.URL.Query(), s.today())

	exported, err := s.bills.ExportReport(r.Context(), owner.ID, rng, s.now().In(s.loc))
	if err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Attachment(exported.ContentType, exported.Filename, exported.Data).
		Write(w)
}
