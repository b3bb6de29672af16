package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/gruzdev-dev/codex-users/core/domain"
	"github.com/gruzdev-dev/codex-users/core/services"
	"github.com/gruzdev-dev/codex-users/pkg/requestid"

	"github.com/gorilla/mux"
)

const (
	msgUserNotFound   = "User not found"
	msgMissingFields  = "All fields (name, age, email) are required."
	msgWriteFailed    = "Failed to write users to file."
	msgReadFailed     = "Failed to read users."
	msgInternalError  = "internal server error"
	maxRequestBodyLen = 100 << 10
)

type Handler struct {
	userService *services.UserService
}

func NewHandler(userService *services.UserService) *Handler {
	return &Handler{
		userService: userService,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.ListUsers).Methods("GET")
	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}", h.UpdateUser).Methods("PUT")
	router.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, "OK")
}

func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Ready(r.Context()); err != nil {
		log.Printf("[http] readiness check failed: %v", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, "OK")
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		respondMessage(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	input, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if body, err := json.Marshal(input); err == nil {
		log.Printf("[http] request=%s create user body: %s", requestid.Tag(r.Context()), body)
	}

	user, err := h.userService.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		respondMessage(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	patch, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userService.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		respondMessage(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	removed, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, []domain.User{*removed})
}

// userID parses the {id} path variable. Anything that is not a base-10
// integer is reported as an unknown user.
func userID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeBody reads a JSON object or an urlencoded form into a field map. An
// empty body, or a body of any other media type, is an empty map.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyLen)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		return decodeForm(r)
	case "application/json", "":
		return decodeJSON(r)
	default:
		return map[string]any{}, nil
	}
}

func decodeForm(r *http.Request) (map[string]any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fields := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) == 1 {
			fields[key] = values[0]
			continue
		}
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v
		}
		fields[key] = list
	}
	return fields, nil
}

func decodeJSON(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: request body must be a JSON object", domain.ErrInvalidInput)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: request body must hold a single JSON object", domain.ErrInvalidInput)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		respondMessage(w, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, domain.ErrMissingFields):
		respondMessage(w, http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, domain.ErrInvalidInput):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStorageWrite):
		respondMessage(w, http.StatusInternalServerError, msgWriteFailed)
	case errors.Is(err, domain.ErrStorageRead):
		respondMessage(w, http.StatusInternalServerError, msgReadFailed)
	default:
		log.Printf("[http] unexpected error: %v", err)
		respondMessage(w, http.StatusInternalServerError, msgInternalError)
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
