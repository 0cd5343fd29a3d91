package store

import (
	"context"
	"strings"
	"sync"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
)

// InMemory is the dev/test organization store. It mirrors PostgresStore
// semantics including case-insensitive uniqueness.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[id.OrgID]*models.Organization
}

func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[id.OrgID]*models.Organization)}
}

func (s *InMemory) CreateIfAvailable(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orgs {
		if strings.EqualFold(existing.Name, org.Name) || strings.EqualFold(existing.Slug, org.Slug) {
			return sentinel.ErrAlreadyUsed
		}
	}
	clone := *org
	s.orgs[org.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, orgID id.OrgID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *org
	return &clone, nil
}

func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, org := range s.orgs {
		if strings.EqualFold(org.Slug, slug) {
			clone := *org
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Execute(_ context.Context, orgID id.OrgID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(org); err != nil {
		return nil, err
	}
	mutate(org)
	clone := *org
	return &clone, nil
}
