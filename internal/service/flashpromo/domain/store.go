// internal/service/flashpromo/domain/store.go
package domain

import "github.com/google/uuid"

// Store 是市场卖家门店实体。
type Store struct {
	ID       uuid.UUID
	Name     string
	Location *Location
	IsActive bool
}

// NewStore 创建门店，默认激活。
func NewStore(name string, location *Location) *Store {
	return &Store{
		ID:       uuid.New(),
		Name:     name,
		Location: location,
		IsActive: true,
	}
}

func (s *Store) Activate()   { s.IsActive = true }
func (s *Store) Deactivate() { s.IsActive = false }

// UpdateLocation 更新门店位置。
func (s *Store) UpdateLocation(loc Location) {
	s.Location = &loc
}
