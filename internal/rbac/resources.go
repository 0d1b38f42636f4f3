package rbac

import (
	"strings"

	"github.com/gamestore/gamestore-admin/internal/shared"
)

// Target pages/resources the SPA asks about.
const (
	ResourceGames        = "Games"
	ResourceDeletedGames = "DeletedGames"
	ResourceGenres       = "Genres"
	ResourcePublishers   = "Publishers"
	ResourcePlatforms    = "Platforms"
	ResourceOrders       = "Orders"
	ResourceHistory      = "History"
	ResourceCart         = "Cart"
	ResourceComments     = "Comments"
	ResourceBan          = "Ban"
	ResourceUsers        = "Users"
	ResourceRoles        = "Roles"
)

// ResourceTable maps resource names to the permission required to access them.
// Lookups ignore case.
type ResourceTable struct {
	entries map[string]string
}

// NewResourceTable builds a table from resource → permission pairs.
func NewResourceTable(entries map[string]string) ResourceTable {
	t := ResourceTable{entries: make(map[string]string, len(entries))}
	for resource, perm := range entries {
		t.entries[strings.ToLower(strings.TrimSpace(resource))] = perm
	}
	return t
}

// DefaultResources returns the game store page table.
func DefaultResources() ResourceTable {
	return NewResourceTable(map[string]string{
		ResourceGames:        shared.PermViewGame,
		ResourceDeletedGames: shared.PermViewDeletedGame,
		ResourceGenres:       shared.PermViewGenre,
		ResourcePublishers:   shared.PermViewPublisher,
		ResourcePlatforms:    shared.PermViewPlatform,
		ResourceOrders:       shared.PermViewOrders,
		ResourceHistory:      shared.PermViewOrderHistory,
		ResourceCart:         shared.PermBuyGame,
		ResourceComments:     shared.PermManageComments,
		ResourceBan:          shared.PermBanUsers,
		ResourceUsers:        shared.PermViewUsers,
		ResourceRoles:        shared.PermViewRoles,
	})
}

// Required returns the permission guarding resource. Unmapped names are taken
// literally as the permission itself and reported with mapped == false.
func (t ResourceTable) Required(resource string) (perm string, mapped bool) {
	resource = strings.TrimSpace(resource)
	if perm, ok := t.entries[strings.ToLower(resource)]; ok {
		return perm, true
	}
	return resource, false
}
