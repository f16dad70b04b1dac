package permission

import "github.com/stackfield/tracksearch/internal/domain"

// Capability names understood by the authorization oracle.
type Capability string

const (
	CapViewWorkItems        Capability = "view_work_items"
	CapViewPrivateWorkItems Capability = "view_private_work_items"
	CapViewWikiPages        Capability = "view_wiki_pages"
	CapViewAnnouncements    Capability = "view_announcements"
	CapViewForumPosts       Capability = "view_forum_posts"
	CapViewCommits          Capability = "view_commits"
	CapViewFiles            Capability = "view_files"
)

// viewCapability maps each record kind to its baseline view capability.
// Projects have no capability: their visibility is membership/public based.
var viewCapability = map[domain.Kind]Capability{
	domain.KindWorkItem:     CapViewWorkItems,
	domain.KindWikiPage:     CapViewWikiPages,
	domain.KindAnnouncement: CapViewAnnouncements,
	domain.KindForumPost:    CapViewForumPosts,
	domain.KindCommit:       CapViewCommits,
	domain.KindFile:         CapViewFiles,
}
