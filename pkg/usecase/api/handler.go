// Package api serves the /api HTTP surface over the cache, note store and
// search index, plus the aggregated dependency health check.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/damianoneill/notesvc/pkg/domain/cache"
	"github.com/damianoneill/notesvc/pkg/domain/health"
	"github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/domain/notes"
	"github.com/damianoneill/notesvc/pkg/domain/search"
)

const maxBodyBytes = 1 << 20

// seedDocuments are indexed by the seed endpoint.
var seedDocuments = []string{
	"hello world sample document",
	"support developer demo with elasticsearch",
	"investigation case management platform search",
}

// Dependencies are the collaborators used by the handlers. All but Clock
// are required.
type Dependencies struct {
	Checker health.Checker
	Counter cache.Counter
	Store   notes.Store
	Index   search.Index
	Logger  logging.Logger

	// Clock stamps seeded documents. Defaults to time.Now.
	Clock func() time.Time
}

// Handler implements the /api endpoints.
type Handler struct {
	checker health.Checker
	counter cache.Counter
	store   notes.Store
	index   search.Index
	logger  logging.Logger
	now     func() time.Time
}

// NewHandler validates deps and returns a Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Checker == nil:
		return nil, fmt.Errorf("readiness checker is required")
	case deps.Counter == nil:
		return nil, fmt.Errorf("cache counter is required")
	case deps.Store == nil:
		return nil, fmt.Errorf("note store is required")
	case deps.Index == nil:
		return nil, fmt.Errorf("search index is required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}

	now := deps.Clock
	if now == nil {
		now = time.Now
	}

	return &Handler{
		checker: deps.Checker,
		counter: deps.Counter,
		store:   deps.Store,
		index:   deps.Index,
		logger:  deps.Logger,
		now:     now,
	}, nil
}

// Register mounts the /api routes on r and makes every unmatched request
// answer with a JSON 404.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Get("/cache", h.handleCache)
		r.Get("/db/time", h.handleDBTime)
		r.Post("/notes", h.handleCreateNote)
		r.Get("/notes", h.handleListNotes)
		r.Post("/search/seed", h.handleSeed)
		r.Get("/search", h.handleSearch)
	})

	r.NotFound(h.handleNotFound)
	r.MethodNotAllowed(h.handleNotFound)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.checker.CheckReadiness(r.Context())

	status := http.StatusOK
	if !report.OK {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, report)
}

func (h *Handler) handleCache(w http.ResponseWriter, r *http.Request) {
	hits, err := h.counter.Incr(r.Context(), cache.HitsKey)
	if err != nil {
		h.fail(w, r, "Failed to increment hit counter", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"hits": hits})
}

func (h *Handler) handleDBTime(w http.ResponseWriter, r *http.Request) {
	now, err := h.store.Now(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to query database time", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]time.Time{"now": now})
}

// createNoteRequest accepts the note text as body, or as text for older clients.
type createNoteRequest struct {
	Body string `json:"body"`
	Text string `json:"text"`
}

func (r createNoteRequest) text() string {
	if r.Body != "" {
		return r.Body
	}
	return r.Text
}

func (h *Handler) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, notes.ErrEmptyBody.Error())
		return
	}

	body := req.text()
	if err := notes.ValidateBody(body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.store.Create(r.Context(), body)
	if errors.Is(err, notes.ErrEmptyBody) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, "Failed to create note", err)
		return
	}

	doc := search.Document{Body: note.Body, CreatedAt: note.CreatedAt}
	if err := h.index.IndexDocument(r.Context(), doc, true); err != nil {
		h.logger.WithContext(r.Context()).WarnWith("Failed to index note", logging.Fields{
			"note_id":    note.ID,
			"error":      err.Error(),
			"request_id": middleware.GetReqID(r.Context()),
		})
	}

	respondJSON(w, http.StatusCreated, note)
}

func (h *Handler) handleListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), notes.ListLimit)
	if err != nil {
		h.fail(w, r, "Failed to list notes", err)
		return
	}
	if list == nil {
		list = []notes.Note{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.index.EnsureIndex(ctx); err != nil {
		h.fail(w, r, "Failed to create search index", err)
		return
	}

	for _, body := range seedDocuments {
		doc := search.Document{Body: body, CreatedAt: h.now().UTC()}
		if err := h.index.IndexDocument(ctx, doc, false); err != nil {
			h.fail(w, r, "Failed to index seed document", err)
			return
		}
	}

	if err := h.index.Refresh(ctx); err != nil {
		h.fail(w, r, "Failed to refresh search index", err)
		return
	}

	h.logger.WithContext(ctx).InfoWith("Seeded search index", logging.Fields{
		"documents": len(seedDocuments),
	})
	respondJSON(w, http.StatusOK, map[string]int{"seeded": len(seedDocuments)})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondJSON(w, http.StatusOK, map[string][]search.Hit{"hits": {}})
		return
	}

	hits, err := h.index.Search(r.Context(), q, search.DefaultSize)
	if err != nil {
		h.fail(w, r, "Search failed", err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	respondJSON(w, http.StatusOK, map[string][]search.Hit{"hits": hits})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Not found")
}

// fail logs err against the request and answers 500 with its message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.WithContext(r.Context()).ErrorWith(msg, logging.Fields{
		"error":      err.Error(),
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	})
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
