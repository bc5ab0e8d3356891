// Package server exposes sessions over HTTP. Each client is bound to its own
// session through the X-Session-ID header or the vterm_session cookie.
package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ashwch/vterm/internal/safety"
	"github.com/ashwch/vterm/internal/session"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "vterm_session"

	maxBodyBytes = 64 << 10
)

//go:embed static/index.html
var indexPage []byte

type Options struct {
	// BlockHighRisk refuses passthrough commands that match a high-risk
	// pattern instead of running them.
	BlockHighRisk bool
	Logger        *zap.Logger
}

type Server struct {
	sessions      *session.Manager
	blockHighRisk bool
	logger        *zap.Logger
	mux           *http.ServeMux
}

func New(sessions *session.Manager, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		sessions:      sessions,
		blockHighRisk: opts.BlockHighRisk,
		logger:        logger,
		mux:           http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /execute", s.handleExecute)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	s.mux.HandleFunc("DELETE /session", s.handleCloseSession)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type executeRequest struct {
	Command string `json:"command"`
}

type executeResponse struct {
	Output string `json:"output"`
	// ParsedCommand is null when normalization left the input unchanged.
	ParsedCommand *string `json:"parsed_command"`
	Cwd           string  `json:"cwd"`
	Timestamp     string  `json:"timestamp"`
	SessionID     string  `json:"session_id"`
	Exit          bool    `json:"exit,omitempty"`
	Kind          string  `json:"kind,omitempty"`
}

type statusResponse struct {
	Cwd       string `json:"cwd"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}
	command := strings.TrimSpace(req.Command)
	if command == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No command provided"})
		return
	}

	sess := s.bind(w, r)
	logger := s.logger.With(zap.String("session", sess.ID))

	if preview := sess.Preview(command); preview.HighRisk && s.blockHighRisk {
		logger.Warn("blocked high-risk command", zap.String("command", safety.RedactCommand(preview.Canonical)))
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error: fmt.Sprintf("Blocked high-risk command: %s", preview.Canonical),
		})
		return
	}

	start := time.Now()
	result := sess.Execute(r.Context(), command)
	logger.Info("executed",
		zap.String("command", safety.RedactCommand(command)),
		zap.String("kind", string(result.Kind)),
		zap.Duration("elapsed", time.Since(start)))

	resp := executeResponse{
		Output:    strings.Join(result.Lines, "\n"),
		Cwd:       result.WorkingDirectory,
		Timestamp: result.Timestamp.Format("15:04:05"),
		SessionID: sess.ID,
		Exit:      result.Exit,
		Kind:      string(result.Kind),
	}
	if result.Normalized != "" {
		parsed := result.Normalized
		resp.ParsedCommand = &parsed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.bind(w, r).Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Cwd:       status.WorkingDirectory,
		Timestamp: status.Timestamp.Format("2006-01-02 15:04:05"),
		SessionID: status.ID,
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if id := requestSessionID(r); id != "" {
		s.sessions.Close(id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// bind resolves the caller's session and echoes its id back in both the
// header and the cookie.
func (s *Server) bind(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, created := s.sessions.Resolve(requestSessionID(r))
	if created {
		s.logger.Debug("bound new session", zap.String("session", sess.ID), zap.String("remote", r.RemoteAddr))
	}
	w.Header().Set(SessionHeader, sess.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func requestSessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
