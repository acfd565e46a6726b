package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/gitprofile/internal/gitconfig"
	"github.com/kalambet/gitprofile/internal/profile"
	"github.com/kalambet/gitprofile/internal/storage"
)

const maxRequestBodySize = 64 << 10 // 64KB

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Profiles *profile.Manager
	Token    string       // optional; empty disables bearer auth
	MCP      http.Handler // optional; mounted at /mcp when set
}

type profileJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Alias     string `json:"alias,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toProfileJSON(p profile.Profile) profileJSON {
	return profileJSON{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Alias:     p.Alias,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type listResponse struct {
	Profiles     []profileJSON `json:"profiles"`
	CurrentEmail string        `json:"current_email"`
}

type addRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Alias string `json:"alias"`
}

type switchRequest struct {
	Alias string `json:"alias"`
	Email string `json:"email"`
}

// NewAppHandler returns the loopback HTTP API for managing profiles.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/profiles", handleListProfiles(deps))
		r.Post("/profiles", handleAddProfile(deps))
		r.Post("/switch", handleSwitch(deps))
		r.Get("/identity", handleIdentity(deps))
		if deps.MCP != nil {
			r.Handle("/mcp", deps.MCP)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleListProfiles(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := deps.Profiles.List(r.Context())
		if err != nil {
			if !errors.Is(err, profile.ErrIdentityUnavailable) {
				httpError(w, http.StatusInternalServerError, "api_error", "listing profiles: %v", err)
				return
			}
			slog.Warn("listing without current identity", "error", err)
		}

		resp := listResponse{
			Profiles:     make([]profileJSON, len(listing.Profiles)),
			CurrentEmail: listing.CurrentEmail,
		}
		for i, p := range listing.Profiles {
			resp.Profiles[i] = toProfileJSON(p)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAddProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if !decodeBody(w, r, &req) {
			return
		}

		p, err := deps.Profiles.Add(r.Context(), req.Name, req.Email, req.Alias)
		switch {
		case errors.Is(err, profile.ErrMissingField):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case errors.Is(err, storage.ErrDuplicate):
			var dup *storage.DuplicateError
			if errors.As(err, &dup) {
				err = dup
			}
			httpError(w, http.StatusConflict, "conflict_error", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}

		writeJSON(w, http.StatusCreated, toProfileJSON(p))
	}
}

func handleSwitch(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchRequest
		if !decodeBody(w, r, &req) {
			return
		}

		p, err := deps.Profiles.Switch(r.Context(), profile.Selector{Alias: req.Alias, Email: req.Email})
		switch {
		case errors.Is(err, profile.ErrNoMatch):
			httpError(w, http.StatusNotFound, "not_found_error", "no profile matches alias %q or email %q", req.Alias, req.Email)
			return
		case isGitError(err):
			httpError(w, http.StatusBadGateway, "git_error", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}

		writeJSON(w, http.StatusOK, toProfileJSON(p))
	}
}

// isGitError reports whether err came from running git rather than from
// the store or the lock.
func isGitError(err error) bool {
	var ce *gitconfig.CommandError
	return errors.As(err, &ce) ||
		errors.Is(err, gitconfig.ErrGitUnavailable) ||
		errors.Is(err, gitconfig.ErrCommandFailed)
}

func handleIdentity(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := deps.Profiles.Current(r.Context())
		if err != nil {
			httpError(w, http.StatusBadGateway, "git_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, id)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
