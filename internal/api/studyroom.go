package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"

	"github.com/stufocus/go-studyroom/internal/config"
	"github.com/stufocus/go-studyroom/internal/database"
	"github.com/stufocus/go-studyroom/internal/passcode"
	"github.com/stufocus/go-studyroom/internal/server"
	"github.com/stufocus/go-studyroom/internal/stats"
)

type StudyRoomApp struct {
	log            *log.Logger
	db             database.StudyRoomRepository
	mux            *http.Server
	ss             *server.StudyServer
	stats          stats.StatsProvider
	passcodes      *passcode.Generator
	allowedOrigins []string
	// generateConnId is overridable in tests
	generateConnId func() (string, error)
}

func NewStudyRoomApp(mux *http.ServeMux, logger *log.Logger, ss *server.StudyServer, db database.StudyRoomRepository, sp stats.StatsProvider, cfg *config.Config) *StudyRoomApp {
	s := &StudyRoomApp{
		log:            logger,
		db:             db,
		ss:             ss,
		stats:          sp,
		passcodes:      passcode.NewGenerator(db),
		allowedOrigins: cfg.AllowedOrigins,
		generateConnId: shortid.Generate,
	}

	mux.HandleFunc("POST /api/rooms", s.createRoom)
	mux.HandleFunc("GET /api/rooms", s.getRoom)
	mux.HandleFunc("GET /api/rooms/{id}/users", s.getRoomUsers)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *StudyRoomApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *StudyRoomApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
