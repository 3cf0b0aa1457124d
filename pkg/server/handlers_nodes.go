package server

import (
	"net/http"
)

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.inspector.Dump(r.Context(), s.device(r))
	s.respond(w, r, snapshot, err)
}

func (s *Server) handleExistsInDump(w http.ResponseWriter, r *http.Request) {
	query, err := required(r, "query")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok, err := s.inspector.ExistsInLastDump(s.device(r).Serial(), query, r.URL.Query().Get("prop"))
	s.respond(w, r, ok, err)
}

func (s *Server) handleFindNearestNode(w http.ResponseWriter, r *http.Request) {
	p, err := intParams(r, "x", "y")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d, err := s.inspector.FindAtPoint(r.Context(), s.device(r), p[0], p[1])
	s.respond(w, r, d, err)
}

func (s *Server) handleFindByXPath(w http.ResponseWriter, r *http.Request) {
	d, err := s.inspector.FindByPath(r.Context(), s.device(r), r.URL.Query().Get("xpath"))
	s.respond(w, r, d, err)
}

func (s *Server) handleCurrentInputText(w http.ResponseWriter, r *http.Request) {
	text, err := s.inspector.CurrentInputText(r.Context(), s.device(r))
	s.respond(w, r, text, err)
}

func (s *Server) handleClearCurrentInput(w http.ResponseWriter, r *http.Request) {
	msg, err := s.inspector.ClearCurrentInput(r.Context(), s.device(r), r.URL.Query().Get("currentText"))
	s.respond(w, r, msg, err)
}
