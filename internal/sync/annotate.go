package sync

// Provenance labels prepended to comment bodies before storage and indexing.
// The stored text must stay byte-identical across syncs, so these literals
// never change.
const (
	teamCommentPrefix   = "ROTABULL TEAM COMMENT\n\n"
	publicCommentPrefix = "PUBLIC COMMENT\n\n"
	internalNotePrefix  = "INTERNAL NOTE\n\n"
)

// AnnotateComment prepends provenance labels to a comment body. The team
// label goes on first when the author is internal, then the public/internal
// label is prepended in front of it, so the result reads
// [public/internal][team][original body].
func AnnotateComment(body string, authorID int64, public bool, internalAuthors map[int64]struct{}) string {
	if _, ok := internalAuthors[authorID]; ok {
		body = teamCommentPrefix + body
	}
	if public {
		return publicCommentPrefix + body
	}
	return internalNotePrefix + body
}
