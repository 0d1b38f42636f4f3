package shared

// Catalog permissions declared for RBAC.
const (
	// Game permissions
	PermViewGame        = "ViewGame"
	PermViewDeletedGame = "ViewDeletedGame"
	PermAddGame         = "AddGame"
	PermUpdateGame      = "UpdateGame"
	PermDeleteGame      = "DeleteGame"
	PermBuyGame         = "BuyGame"

	// Genre permissions
	PermViewGenre   = "ViewGenre"
	PermAddGenre    = "AddGenre"
	PermUpdateGenre = "UpdateGenre"
	PermDeleteGenre = "DeleteGenre"

	// Publisher permissions
	PermViewPublisher   = "ViewPublisher"
	PermAddPublisher    = "AddPublisher"
	PermUpdatePublisher = "UpdatePublisher"
	PermDeletePublisher = "DeletePublisher"

	// Platform permissions
	PermViewPlatform   = "ViewPlatform"
	PermAddPlatform    = "AddPlatform"
	PermUpdatePlatform = "UpdatePlatform"
	PermDeletePlatform = "DeletePlatform"
)

// GameScopes lists all permissions related to games.
func GameScopes() []string {
	return []string{
		PermViewGame,
		PermViewDeletedGame,
		PermAddGame,
		PermUpdateGame,
		PermDeleteGame,
		PermBuyGame,
	}
}

// GenreScopes lists all permissions related to genres.
func GenreScopes() []string {
	return []string{PermViewGenre, PermAddGenre, PermUpdateGenre, PermDeleteGenre}
}

// PublisherScopes lists all permissions related to publishers.
func PublisherScopes() []string {
	return []string{PermViewPublisher, PermAddPublisher, PermUpdatePublisher, PermDeletePublisher}
}

// PlatformScopes lists all permissions related to platforms.
func PlatformScopes() []string {
	return []string{PermViewPlatform, PermAddPlatform, PermUpdatePlatform, PermDeletePlatform}
}
