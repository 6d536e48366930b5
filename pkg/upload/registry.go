// Copyright 2026 Guestsnap
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guestsnap/guestsnap/pkg/domain"
)

// Registry is the in-memory table of live upload sessions. It is the sole
// owner of session metadata; chunk bytes live in the Store. Nothing is
// persisted, so an in-flight upload is abandoned when the process restarts.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.UploadSession
	now      func() time.Time
}

// NewRegistry creates an empty session registry. The clock is injectable for
// tests; pass nil to use time.Now.
func NewRegistry(clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{
		sessions: make(map[string]*domain.UploadSession),
		now:      clock,
	}
}

// Create allocates a fresh session with a unique ID and an empty received set.
func (r *Registry) Create(owner, filename string, totalChunks int, declaredSize int64) *domain.UploadSession {
	now := r.now()
	session := &domain.UploadSession{
		ID:           uuid.NewString(),
		Owner:        owner,
		Filename:     filename,
		TotalChunks:  totalChunks,
		DeclaredSize: declaredSize,
		Received:     make(map[int]struct{}),
		CreatedAt:    now,
		LastActivity: now,
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return snapshot(session)
}

// RecordChunk marks one chunk index as received and returns the updated
// progress. Recording an index twice is a no-op and does not double-count.
func (r *Registry) RecordChunk(id string, index int) (received, total int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return 0, 0, domain.NewAppError(domain.ErrCodeSessionNotFound, "unknown upload session").
			WithDetails("sessionId", id)
	}
	if index < 1 || index > session.TotalChunks {
		return 0, 0, domain.NewAppError(domain.ErrCodeInvalidInput,
			fmt.Sprintf("chunk index %d out of range 1..%d", index, session.TotalChunks))
	}

	session.Received[index] = struct{}{}
	session.LastActivity = r.now()

	return len(session.Received), session.TotalChunks, nil
}

// Get returns a copy of the session metadata.
func (r *Registry) Get(id string) (*domain.UploadSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.NewAppError(domain.ErrCodeSessionNotFound, "unknown upload session").
			WithDetails("sessionId", id)
	}
	return snapshot(session), nil
}

// Touch refreshes the session's activity timestamp so the evictor leaves it
// alone while a client is still retrying.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		session.LastActivity = r.now()
	}
}

// Take atomically removes the session and returns it. Completion consumes the
// session through Take so a concurrent second completion observes a missing
// session instead of double-assembling.
func (r *Registry) Take(id string) (*domain.UploadSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	return session, true
}

// Remove deletes the session. Removing an absent session is not an error.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Stale returns the IDs of sessions with no activity inside the window.
func (r *Registry) Stale(window time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-window)
	var ids []string
	for id, session := range r.sessions {
		if session.LastActivity.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func snapshot(s *domain.UploadSession) *domain.UploadSession {
	out := *s
	out.Received = make(map[int]struct{}, len(s.Received))
	for i := range s.Received {
		out.Received[i] = struct{}{}
	}
	return &out
}
