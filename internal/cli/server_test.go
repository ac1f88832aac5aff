package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/evcraddock/property-listing/internal/property"
)

// apiServer is an in-memory listing API for command tests.
type apiServer struct {
	*httptest.Server

	mu              sync.Mutex
	props           []map[string]interface{}
	nextID          int64
	password        string
	cancelFail      bool
	dropAfterCancel bool // lists fail once a cancel was refused
	listDown        bool
	uploads         []string
	creates         int
	edits           int
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{nextID: 1, password: "secret"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /register", s.register)
	mux.HandleFunc("GET /api/get_properties", s.list)
	mux.HandleFunc("GET /api/get_property/{id}", s.get)
	mux.HandleFunc("POST /api/properties", s.create)
	mux.HandleFunc("PUT /api/edit_property/{id}", s.edit)
	mux.HandleFunc("PUT /cancel_property/{id}/status", s.cancel)
	mux.HandleFunc("POST /upload_image", s.upload)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// seed adds a property and returns its ID.
func (s *apiServer) seed(title, location string, status int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.props = append(s.props, map[string]interface{}{
		"id":                 id,
		"title":              title,
		"location":           location,
		"price":              "75000",
		"square_feet":        "2000",
		"year_built":         "2018",
		"description":        "Seeded listing",
		"property_type":      "Showroom",
		"parking":            "Street",
		"amenities":          "Lift",
		"property_condition": "good",
		"floors":             "3",
		"image":              "seed.jpg",
		"status":             status,
	})
	return id
}

func (s *apiServer) find(id string) map[string]interface{} {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil
	}
	for _, p := range s.props {
		if p["id"] == n {
			return p
		}
	}
	return nil
}

func reply(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *apiServer) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != s.password {
		reply(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	reply(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    map[string]interface{}{"id": 1, "email": req.Email},
	})
}

func (s *apiServer) register(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *apiServer) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listDown {
		reply(w, http.StatusServiceUnavailable, map[string]string{"message": "Service unavailable"})
		return
	}
	reply(w, http.StatusOK, s.props)
}

func (s *apiServer) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(r.PathValue("id"))
	if p == nil {
		reply(w, http.StatusNotFound, map[string]string{"message": "Property not found"})
		return
	}
	reply(w, http.StatusOK, p)
}

func (s *apiServer) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	body["id"] = s.nextID
	body["status"] = 1
	s.nextID++
	s.props = append(s.props, body)
	reply(w, http.StatusCreated, map[string]string{"message": "Property added successfully"})
}

func (s *apiServer) edit(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": "Invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(r.PathValue("id"))
	if p == nil {
		reply(w, http.StatusNotFound, map[string]string{"message": "Property not found"})
		return
	}
	s.edits++
	for k, v := range body {
		p[k] = v
	}
	reply(w, http.StatusOK, map[string]string{"message": "Property updated successfully"})
}

func (s *apiServer) cancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFail {
		s.listDown = s.dropAfterCancel
		reply(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Database error"})
		return
	}
	p := s.find(r.PathValue("id"))
	if p == nil {
		reply(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Property not found"})
		return
	}
	p["status"] = 0
	reply(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Property cancelled"})
}

func (s *apiServer) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		reply(w, http.StatusBadRequest, map[string]string{"message": "No image"})
		return
	}
	defer func() { _ = file.Close() }()
	if _, err := io.Copy(io.Discard, file); err != nil {
		reply(w, http.StatusInternalServerError, map[string]string{"message": "read failed"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := fmt.Sprintf("1700000000%d-%s", len(s.uploads), filepath.Base(header.Filename))
	s.uploads = append(s.uploads, stored)
	reply(w, http.StatusOK, map[string]string{"filePath": "/srv/app/uploads/" + stored})
}

// snapshot decodes the server's list the way the client does.
func (s *apiServer) snapshot(t *testing.T) []property.Property {
	t.Helper()
	s.mu.Lock()
	data, err := json.Marshal(s.props)
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []property.Property
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}
