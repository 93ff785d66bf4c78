package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dori/staffsphere/internal/model"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListTasks(r.Context(), mux.Vars(r)["parentId"])
	if err != nil {
		writeStoreError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var t model.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if t.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "projectId is required")
		return
	}

	created, err := s.store.CreateTask(r.Context(), t)
	if err != nil {
		writeStoreError(w, "create task", err)
		return
	}
	log.Printf("Task %s created by %s", created.ID, Subject(r.Context()))
	s.hub.Publish(model.Event{Type: "created", Kind: model.KindTask, ParentID: created.ProjectID, ID: created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch model.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	updated, err := s.store.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, "update task", err)
		return
	}
	s.hub.Publish(model.Event{Type: "updated", Kind: model.KindTask, ParentID: updated.ProjectID, ID: id})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		writeStoreError(w, "delete task", err)
		return
	}
	log.Printf("Task %s deleted by %s", id, Subject(r.Context()))
	s.hub.Publish(model.Event{Type: "deleted", Kind: model.KindTask, ID: id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeStoreError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	created, err := s.store.CreateProject(r.Context(), p)
	if err != nil {
		writeStoreError(w, "create project", err)
		return
	}
	log.Printf("Project %s created by %s", created.ID, Subject(r.Context()))
	s.hub.Publish(model.Event{Type: "created", Kind: model.KindProject, ID: created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var patch model.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	updated, err := s.store.UpdateProject(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, "update project", err)
		return
	}
	s.hub.Publish(model.Event{Type: "updated", Kind: model.KindProject, ID: id})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		writeStoreError(w, "delete project", err)
		return
	}
	log.Printf("Project %s deleted by %s", id, Subject(r.Context()))
	s.hub.Publish(model.Event{Type: "deleted", Kind: model.KindProject, ID: id})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := s.store.ListEmployees(r.Context())
	if err != nil {
		writeStoreError(w, "list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// feed upgrades to a websocket that receives a model.Event per change
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	c := &feedClient{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		subject: Subject(r.Context()),
	}
	s.hub.add(c)

	go c.writePump()
	go c.readPump()
}
