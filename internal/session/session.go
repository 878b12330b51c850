// Package session holds the per-client analysis state between requests:
// the extracted report, its embedded chunks, and the latest Q&A exchange.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/siffror/ai-rapportanalys-Render/models"
)

var ErrNotFound = errors.New("session not found")

// Session is one report-analysis conversation. A new source replaces the
// report and invalidates the embedded chunks and the last exchange.
type Session struct {
	ID             string
	CreatedAt      time.Time
	Report         *models.Report
	EmbeddedChunks []models.EmbeddedChunk
	LastQuestion   string
	LastAnswer     *models.Answer
	LastRanked     []models.ScoredChunk
	LastContext    string
	OCRPreview     string
}

// SetReport installs a new source and clears all derived state.
func (s *Session) SetReport(report *models.Report) {
	s.Report = report
	s.EmbeddedChunks = nil
	s.LastQuestion = ""
	s.LastAnswer = nil
	s.LastRanked = nil
	s.LastContext = ""
	s.OCRPreview = ""
}

// Registry is an in-memory session table guarded by a mutex. Sessions are
// small (text plus float32 vectors) and bounded by explicit deletes.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
