package server

import (
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/bgbg/asop/internal/variable"
)

// handleIndex handles GET / with a plain-text overview of jobs and sessions
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "JOBS")
	fmt.Fprintln(tw, "ID\tSTATE\tBENCHMARK\tDIMS\tROUNDS\tBEST")
	for _, job := range s.jobManager.ListJobs() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\t%.6g\n",
			job.ID, job.State, job.Config.Benchmark, job.Config.Dimensions,
			job.Rounds, job.Config.Rounds, job.BestValue)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "SESSIONS")
	fmt.Fprintln(tw, "ID\tDIMS\tDIRECTION\tSCALING\tROUNDS\tBEST")
	for _, sess := range s.sessions.List() {
		info := sess.Info()
		best := "-"
		if info.BestValue != nil {
			best = fmt.Sprintf("%.6g", *info.BestValue)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
			info.ID, len(info.Names), info.Direction, info.Scaling, info.Rounds, best)
	}
	tw.Flush()
}

// handleSessionPlot handles GET /api/v1/sessions/:id/plot, rendering every
// dimension's PMF as text
func (s *Server) handleSessionPlot(w http.ResponseWriter, r *http.Request, sess *Session) {
	var b strings.Builder
	for i, d := range sess.Distributions() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(variable.ASCIIPlot(d.X, d.PDF, d.Name, '|'))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, b.String())
}
