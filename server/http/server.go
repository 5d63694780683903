package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/w-h-a/docqa"
)

// Server is a thin JSON front over a single session, meant for an
// interactive UI or curl. It adds no behavior of its own.
type Server struct {
	session *docqa.Session
	srv     *http.Server
}

func (s *Server) Run() error {
	slog.Info("http server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func NewServer(session *docqa.Session, addr string) *Server {
	s := &Server{
		session: session,
	}

	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/questions", s.handleAsk).Methods(http.MethodPost)
	api.HandleFunc("/documents", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/collection", s.handleCollectionInfo).Methods(http.MethodGet)
	api.HandleFunc("/collection", s.handleClearCollection).Methods(http.MethodDelete)
	api.HandleFunc("/conversation", s.handleClearConversation).Methods(http.MethodDelete)
	api.HandleFunc("/memory", s.handleMemory).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	return s
}
