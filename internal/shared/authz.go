package shared

import "sort"

// PermissionFamily groups permissions belonging to one resource family.
type PermissionFamily struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// PermissionFamilies returns the catalog grouped by resource family.
func PermissionFamilies() []PermissionFamily {
	return []PermissionFamily{
		{Name: "users", Permissions: UserScopes()},
		{Name: "roles", Permissions: RoleScopes()},
		{Name: "games", Permissions: GameScopes()},
		{Name: "genres", Permissions: GenreScopes()},
		{Name: "publishers", Permissions: PublisherScopes()},
		{Name: "platforms", Permissions: PlatformScopes()},
		{Name: "orders", Permissions: OrderScopes()},
		{Name: "comments", Permissions: CommentScopes()},
	}
}

// AllPermissions returns every permission the system recognizes in catalog order.
func AllPermissions() []string {
	var all []string
	for _, family := range PermissionFamilies() {
		all = append(all, family.Permissions...)
	}
	return all
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, p := range AllPermissions() {
		idx[p] = i
	}
	return idx
}()

// IsKnownPermission reports whether p belongs to the catalog.
func IsKnownPermission(p string) bool {
	_, ok := catalogIndex[p]
	return ok
}

// SortPermissions orders perms in place by catalog position. Names outside the
// catalog go last, alphabetically.
func SortPermissions(perms []string) {
	sort.SliceStable(perms, func(i, j int) bool {
		a, aok := catalogIndex[perms[i]]
		b, bok := catalogIndex[perms[j]]
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return perms[i] < perms[j]
		}
	})
}
