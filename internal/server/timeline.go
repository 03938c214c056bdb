package server

import (
	"net/http"

	"github.com/lazypower/scrapbook/internal/timeline"
)

const maxAnchors = 5000

// handleTimeline recomputes the thread for anchors measured by a browser.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	var in timeline.Input
	if !decode(w, r, &in) {
		return
	}
	if len(in.Anchors) > maxAnchors {
		writeError(w, http.StatusBadRequest, "too many anchors")
		return
	}
	out := timeline.Build(in, s.layout().Options)
	s.metrics.TimelineRecomputes.Inc()
	writeJSON(w, http.StatusOK, out)
}
