// Package server exposes the board REST API and the websocket change feed.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dori/staffsphere/internal/auth"
	"github.com/dori/staffsphere/internal/model"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Store is the persistence the API serves from. Implementations return
// model.ErrNotFound for unknown IDs and wrap model.ErrInvalid for
// rejected input.
type Store interface {
	ListTasks(ctx context.Context, projectID string) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.Patch) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, p model.Project) (model.Project, error)
	UpdateProject(ctx context.Context, id string, patch model.Patch) (model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListEmployees(ctx context.Context) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, e model.Employee) (model.Employee, error)
}

// Options configures a Server
type Options struct {
	// Authority verifies bearer tokens; nil turns authentication off
	Authority      *auth.Authority
	AllowedOrigins []string
}

// Server routes API requests to a Store and publishes changes to a Hub
type Server struct {
	store   Store
	auth    *auth.Authority
	hub     *Hub
	handler http.Handler
	stop    context.CancelFunc
}

// New creates a Server and starts its hub. Call Close to stop the hub.
func New(store Store, opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		store: store,
		auth:  opts.Authority,
		hub:   NewHub(),
		stop:  cancel,
	}
	go s.hub.Run(ctx)

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/tasks/{parentId}", s.listTasks).Methods("GET")
	api.HandleFunc("/tasks", s.createTask).Methods("POST")
	api.HandleFunc("/tasks/{id}", s.updateTask).Methods("PUT")
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods("DELETE")
	api.HandleFunc("/projects", s.listProjects).Methods("GET")
	api.HandleFunc("/projects", s.createProject).Methods("POST")
	api.HandleFunc("/projects/{id}", s.updateProject).Methods("PUT")
	api.HandleFunc("/projects/{id}", s.deleteProject).Methods("DELETE")
	api.HandleFunc("/employees", s.listEmployees).Methods("GET")
	api.HandleFunc("/ws", s.feed)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(r)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Hub returns the change-feed hub
func (s *Server) Hub() *Hub { return s.hub }

// Close stops the hub and disconnects feed clients
func (s *Server) Close() {
	s.stop()
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
