package server

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"go.uber.org/zap"
)

const (
	msgTextTyped = "Text typed successfully"
	maxWait      = 24 * time.Hour
)

func (s *Server) handleRunCommand(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.AllowShell {
		s.fail(w, r, core.ErrShellDisabled)
		return
	}
	cmd, err := required(r, "command")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("run-command", zap.String("command", cmd))
	out, err := s.device(r).Shell(r.Context(), cmd)
	s.respond(w, r, out, err)
}

func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.bridge.ListDevices(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	serials := make([]string, 0, len(entries))
	for _, e := range entries {
		serials = append(serials, e.Serial)
	}
	writeJSON(w, http.StatusOK, serials)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	addr, err := required(r, "device")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok, err := s.bridge.Connect(r.Context(), addr)
	if ok {
		// A reconnected device may show a different screen.
		s.inspector.Forget(addr)
	}
	s.respond(w, r, ok, err)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	p, err := intParams(r, "x", "y")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.device(r).Tap(r.Context(), p[0], p[1])
	s.respond(w, r, out, err)
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	p, err := intParams(r, "xPoint1", "yPoint1", "xPoint2", "yPoint2", "durationInMs")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.device(r).Swipe(r.Context(), p[0], p[1], p[2], p[3], p[4])
	s.respond(w, r, out, err)
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	text, err := required(r, "text")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.device(r).TypeText(r.Context(), text); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, msgTextTyped, nil)
}

func (s *Server) handleGoHome(w http.ResponseWriter, r *http.Request) {
	out, err := s.device(r).GoHome(r.Context())
	s.respond(w, r, out, err)
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	png, err := s.device(r).Screenshot(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, base64.StdEncoding.EncodeToString(png), nil)
}

func (s *Server) handleResolution(w http.ResponseWriter, r *http.Request) {
	width, height, err := s.device(r).Resolution(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, map[string]int{"width": width, "height": height}, nil)
}

func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	details, err := s.device(r).Battery(r.Context())
	s.respond(w, r, details, err)
}

func (s *Server) handleServiceCheck(w http.ResponseWriter, r *http.Request) {
	name, err := required(r, "service")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok, err := s.device(r).ServiceCheck(r.Context(), name)
	s.respond(w, r, ok, err)
}

func (s *Server) handleScreenAwake(w http.ResponseWriter, r *http.Request) {
	// Anything but isOn=true turns stay-on off.
	on := r.URL.Query().Get("isOn") == "true"
	out, err := s.device(r).StayAwake(r.Context(), on)
	s.respond(w, r, out, err)
}

func (s *Server) handleScreenStayOnOff(w http.ResponseWriter, r *http.Request) {
	out, err := s.device(r).StayAwake(r.Context(), false)
	s.respond(w, r, out, err)
}

func (s *Server) handleWait(w http.ResponseWriter, r *http.Request) {
	v, err := required(r, "time")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 || int64(ms) > maxWait.Milliseconds() {
		s.fail(w, r, core.Invalid("time", v, err))
		return
	}

	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		s.respond(w, r, nil, nil)
	case <-r.Context().Done():
		s.fail(w, r, core.ErrTimeout.WithMessage("wait interrupted").WithCause(r.Context().Err()))
	}
}
