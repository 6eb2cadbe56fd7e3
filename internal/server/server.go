// Package server exposes the telephony webhooks and the admin endpoints over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/comigor/darshini/internal/calllog"
	"github.com/comigor/darshini/internal/logger"
	"github.com/comigor/darshini/internal/session"
	"github.com/comigor/darshini/internal/telephony"
	"github.com/comigor/darshini/internal/voice"
)

// Server holds the HTTP handlers.
type Server struct {
	ctrl     *session.Controller
	renderer *voice.Renderer
	dialer   telephony.Dialer
	calls    *calllog.Log
	// fallback is served if rendering ever fails, so the caller always hears something.
	fallback string
}

// New creates the HTTP surface.
func New(ctrl *session.Controller, renderer *voice.Renderer, dialer telephony.Dialer, calls *calllog.Log) *Server {
	return &Server{
		ctrl:     ctrl,
		renderer: renderer,
		dialer:   dialer,
		calls:    calls,
		fallback: `<?xml version="1.0" encoding="UTF-8"?><Response><Hangup/></Response>`,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// telephony webhooks
	mux.HandleFunc("POST "+voice.IncomingPath, s.handleIncoming)
	mux.HandleFunc("POST "+voice.SpeechPath, s.handleSpeech)

	// admin
	mux.HandleFunc("GET /make-call", s.handleMakeCall)
	mux.HandleFunc("GET /calls", s.handleCalls)
	mux.HandleFunc("GET /sessions", s.handleSessions)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.FromContext(r.Context()).Warn("parse form error", "err", err)
	}
	callSID := r.PostFormValue("CallSid")
	ctx := logger.WithCall(r.Context(), callSID)
	logger.FromContext(ctx).Info("call connected")

	s.writeTwiML(w, r.WithContext(ctx), s.ctrl.CallStarted(ctx, callSID))
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.FromContext(r.Context()).Warn("parse form error", "err", err)
	}
	callSID := r.PostFormValue("CallSid")
	ctx := logger.WithCall(r.Context(), callSID)

	instr := s.ctrl.SpeechRecognized(ctx, callSID, r.PostFormValue("SpeechResult"))
	s.writeTwiML(w, r.WithContext(ctx), instr)
}

func (s *Server) writeTwiML(w http.ResponseWriter, r *http.Request, instr session.Instruction) {
	body, err := s.renderer.Render(instr)
	if err != nil {
		logger.FromContext(r.Context()).Error("render twiml error", "err", err, "kind", instr.Kind)
		body = s.fallback
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(body))
}

func (s *Server) handleMakeCall(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	sid, err := s.dialer.Dial(r.Context())
	if err != nil {
		log.Error("make call error", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}

	log.Info("call initiated", "call_sid", sid)
	s.calls.Record(sid, calllog.EventOriginated, "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "Call initiated", "sid": sid})
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if callSID := r.URL.Query().Get("call_sid"); callSID != "" {
		writeJSON(w, http.StatusOK, s.calls.ForCall(callSID))
		return
	}
	writeJSON(w, http.StatusOK, s.calls.Recent(limit))
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Sessions())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L.Error("write json error", "err", err)
	}
}
