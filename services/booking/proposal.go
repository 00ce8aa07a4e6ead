package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"callpilot/models"
)

// proposalTTL bounds how long a stored proposal stays confirmable.
const proposalTTL = 30 * time.Minute

// ProposalStore keeps confirm state between the propose and confirm phases.
// Save issues the session id; Get on a missing or expired session returns a
// ProposalNotFound workflow error.
type ProposalStore interface {
	Save(ctx context.Context, state models.ConfirmState) (string, error)
	Get(ctx context.Context, sessionID string) (*models.ConfirmState, error)
	Delete(ctx context.Context, sessionID string) error
}

func proposalNotFound(sessionID string) error {
	return NewWorkflowError(CodeProposalNotFound,
		fmt.Sprintf("proposal session %s not found or expired", sessionID))
}

// RedisProposalStore backs the store with the dedicated session cache
// database, JSON-encoded under the session id with a 30-minute TTL.
type RedisProposalStore struct {
	Client *redis.Client
}

func NewRedisProposalStore(client *redis.Client) *RedisProposalStore {
	return &RedisProposalStore{Client: client}
}

func (s *RedisProposalStore) Save(ctx context.Context, state models.ConfirmState) (string, error) {
	sessionID := uuid.New().String()

	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal proposal state: %w", err)
	}
	if err := s.Client.Set(ctx, sessionID, data, proposalTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store proposal state: %w", err)
	}
	return sessionID, nil
}

func (s *RedisProposalStore) Get(ctx context.Context, sessionID string) (*models.ConfirmState, error) {
	data, err := s.Client.Get(ctx, sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, proposalNotFound(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proposal session: %w", err)
	}

	var state models.ConfirmState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to parse proposal session: %w", err)
	}
	return &state, nil
}

func (s *RedisProposalStore) Delete(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, sessionID).Err()
}

// MemoryProposalStore is the in-process store used when no Redis is
// configured. Entries expire lazily on access.
type MemoryProposalStore struct {
	mu      sync.Mutex
	entries map[string]memoryProposal

	// now is swappable for expiry tests.
	now func() time.Time
}

type memoryProposal struct {
	state     models.ConfirmState
	expiresAt time.Time
}

func NewMemoryProposalStore() *MemoryProposalStore {
	return &MemoryProposalStore{
		entries: make(map[string]memoryProposal),
		now:     time.Now,
	}
}

func (s *MemoryProposalStore) Save(ctx context.Context, state models.ConfirmState) (string, error) {
	sessionID := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryProposal{
		state:     state,
		expiresAt: s.now().Add(proposalTTL),
	}
	return sessionID, nil
}

func (s *MemoryProposalStore) Get(ctx context.Context, sessionID string) (*models.ConfirmState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return nil, proposalNotFound(sessionID)
	}
	state := entry.state
	return &state, nil
}

func (s *MemoryProposalStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
