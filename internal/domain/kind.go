package domain

// Kind tags the seven searchable record variants. The tag doubles as the
// document "type" field in the index, so values are part of the wire schema.
type Kind string

const (
	KindWorkItem     Kind = "work_item"
	KindWikiPage     Kind = "wiki_page"
	KindAnnouncement Kind = "announcement"
	KindForumPost    Kind = "forum_post"
	KindCommit       Kind = "commit"
	KindFile         Kind = "file"
	KindProject      Kind = "project"
)

// AllKinds lists every searchable kind in presentation order.
func AllKinds() []Kind {
	return []Kind{
		KindWorkItem,
		KindWikiPage,
		KindAnnouncement,
		KindForumPost,
		KindCommit,
		KindFile,
		KindProject,
	}
}

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindWorkItem, KindWikiPage, KindAnnouncement, KindForumPost,
		KindCommit, KindFile, KindProject:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
