package server

import (
	"net/http"
)

func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	includeSystem, err := boolParam(r, "includeSystemApps")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	pkgs, err := s.device(r).InstalledPackages(r.Context(), includeSystem)
	if pkgs == nil {
		pkgs = []string{}
	}
	s.respond(w, r, pkgs, err)
}

func (s *Server) handleAppExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.device(r).AppExists(r.Context(), r.URL.Query().Get("appPackageName"))
	s.respond(w, r, ok, err)
}

func (s *Server) handleClearApp(w http.ResponseWriter, r *http.Request) {
	out, err := s.device(r).ClearAppData(r.Context(), r.URL.Query().Get("appPackageName"))
	s.respond(w, r, out, err)
}

func (s *Server) handleOpenApp(w http.ResponseWriter, r *http.Request) {
	out, err := s.device(r).OpenApp(r.Context(), r.URL.Query().Get("appPackageName"))
	s.respond(w, r, out, err)
}

func (s *Server) handleInstallApp(w http.ResponseWriter, r *http.Request) {
	out, err := s.device(r).InstallApp(r.Context(), r.URL.Query().Get("appPath"))
	s.respond(w, r, out, err)
}
