package shared

// Comment permissions.
const (
	PermCommentOnGames = "CommentOnGames"
	PermManageComments = "ManageComments"
)

// CommentScopes lists all permissions related to comments and moderation.
func CommentScopes() []string {
	return []string{PermCommentOnGames, PermManageComments}
}
