package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/legalhold/pkg/models"
)

// Cache memoizes identity lookups for the lifetime of one reduction pass.
// Build one per pass with NewCache and drop it when the pass ends; it is
// never shared, so a renamed user shows up under the new handle on the next
// pass but stays stable within a single transcript.
type Cache struct {
	dir Directory

	mu      sync.Mutex
	entries map[uuid.UUID]models.Identity
	lookups int
}

// NewCache returns an empty cache in front of dir.
func NewCache(dir Directory) *Cache {
	return &Cache{
		dir:     dir,
		entries: make(map[uuid.UUID]models.Identity),
	}
}

// Resolve returns the display identity for userID. It never fails: on lookup
// error the failure is logged and a placeholder identity is returned (and
// memoized, so a broken directory entry costs one remote call per pass).
func (c *Cache) Resolve(ctx context.Context, userID uuid.UUID) models.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.entries[userID]; ok {
		return id
	}

	id := c.lookup(ctx, userID)
	c.entries[userID] = id
	return id
}

// Name is shorthand for Resolve(ctx, userID).DisplayName.
func (c *Cache) Name(ctx context.Context, userID uuid.UUID) string {
	return c.Resolve(ctx, userID).DisplayName
}

// Lookups reports how many remote calls the cache has made.
func (c *Cache) Lookups() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookups
}

func (c *Cache) lookup(ctx context.Context, userID uuid.UUID) models.Identity {
	if userID == uuid.Nil || c.dir == nil {
		return Placeholder(userID)
	}

	c.lookups++
	user, err := c.dir.GetUser(ctx, userID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("user_id", userID.String()).
			Msg("Directory lookup failed, using placeholder identity")
		return Placeholder(userID)
	}
	return identityFrom(userID, user)
}

// Placeholder is the identity substituted when a user cannot be resolved.
func Placeholder(userID uuid.UUID) models.Identity {
	return models.Identity{
		UserID:      userID,
		DisplayName: fmt.Sprintf("unknown (%s)", userID),
		Placeholder: true,
	}
}

func identityFrom(userID uuid.UUID, user *User) models.Identity {
	id := models.Identity{
		UserID:      userID,
		DisplayName: user.Handle,
		Handle:      user.Handle,
		Name:        user.Name,
	}
	if id.DisplayName == "" {
		id.DisplayName = userID.String()
	}
	for _, a := range user.Assets {
		if a.Key != "" {
			id.AssetKeys = append(id.AssetKeys, a.Key)
		}
	}
	return id
}
