package domain

import "time"

// Record is the sealed interface over the seven searchable record variants.
// The tracker application owns the records; this module only projects them
// into index documents and resolves search hits back to them.
type Record interface {
	Kind() Kind
	RecordID() int64
}

// Journal is a comment/history entry attached to a work item.
type Journal struct {
	ID        int64     `json:"id"`
	Notes     string    `json:"notes"`
	Private   bool      `json:"private"`
	UserID    int64     `json:"user_id"`
	CreatedOn time.Time `json:"created_on"`
}

// CustomFieldValue is one custom field bound to a record. Values holds one
// entry for scalar fields and several for multi-value fields.
type CustomFieldValue struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Values     []string `json:"values"`
	Searchable bool     `json:"searchable"`
}

// Attachment is file metadata attached to a record. Extracted fulltext is
// supplied by a separate workflow, never carried here.
type Attachment struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// WorkItem is a tracked task/bug/feature.
type WorkItem struct {
	ID            int64              `json:"id"`
	ProjectID     int64              `json:"project_id"`
	ProjectPublic bool               `json:"project_public"`
	Subject       string             `json:"subject"`
	Description   string             `json:"description"`
	Private       bool               `json:"private"`
	AuthorID      int64              `json:"author_id"`
	AssignedToID  *int64             `json:"assigned_to_id"`
	TrackerID     int64              `json:"tracker_id"`
	StatusID      int64              `json:"status_id"`
	StatusClosed  bool               `json:"status_closed"`
	PriorityID    int64              `json:"priority_id"`
	Journals      []Journal          `json:"journals"`
	CustomFields  []CustomFieldValue `json:"custom_fields"`
	Attachments   []Attachment       `json:"attachments"`
	CreatedOn     time.Time          `json:"created_on"`
	UpdatedOn     time.Time          `json:"updated_on"`
}

func (w *WorkItem) Kind() Kind      { return KindWorkItem }
func (w *WorkItem) RecordID() int64 { return w.ID }

// WikiPage is a page in a project wiki. The project association is nullable:
// a page can outlive its wiki container.
type WikiPage struct {
	ID            int64        `json:"id"`
	ProjectID     *int64       `json:"project_id"`
	ProjectPublic bool         `json:"project_public"`
	Title         string       `json:"title"`
	Text          string       `json:"text"`
	Attachments   []Attachment `json:"attachments"`
	CreatedOn     time.Time    `json:"created_on"`
	UpdatedOn     time.Time    `json:"updated_on"`
}

func (p *WikiPage) Kind() Kind      { return KindWikiPage }
func (p *WikiPage) RecordID() int64 { return p.ID }

// Announcement is a project news entry. Visible project-wide without
// membership when the project is public.
type Announcement struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id"`
	ProjectPublic bool      `json:"project_public"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Description   string    `json:"description"`
	AuthorID      int64     `json:"author_id"`
	CreatedOn     time.Time `json:"created_on"`
}

func (a *Announcement) Kind() Kind      { return KindAnnouncement }
func (a *Announcement) RecordID() int64 { return a.ID }

// ForumPost is a message on a project discussion board.
type ForumPost struct {
	ID            int64     `json:"id"`
	BoardID       int64     `json:"board_id"`
	ParentID      *int64    `json:"parent_id"`
	ProjectID     *int64    `json:"project_id"`
	ProjectPublic bool      `json:"project_public"`
	Subject       string    `json:"subject"`
	Content       string    `json:"content"`
	AuthorID      int64     `json:"author_id"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}

func (f *ForumPost) Kind() Kind      { return KindForumPost }
func (f *ForumPost) RecordID() int64 { return f.ID }

// Commit is a repository changeset known to the tracker.
type Commit struct {
	ID            int64     `json:"id"`
	RepositoryID  int64     `json:"repository_id"`
	ProjectID     *int64    `json:"project_id"`
	ProjectPublic bool      `json:"project_public"`
	Revision      string    `json:"revision"`
	Comments      string    `json:"comments"`
	CommitterID   int64     `json:"committer_id"`
	CommittedOn   time.Time `json:"committed_on"`
}

func (c *Commit) Kind() Kind      { return KindCommit }
func (c *Commit) RecordID() int64 { return c.ID }

// FileDoc is a document stored in a project's files section.
type FileDoc struct {
	ID            int64        `json:"id"`
	ProjectID     int64        `json:"project_id"`
	ProjectPublic bool         `json:"project_public"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	CategoryID    int64        `json:"category_id"`
	Attachments   []Attachment `json:"attachments"`
	CreatedOn     time.Time    `json:"created_on"`
}

func (f *FileDoc) Kind() Kind      { return KindFile }
func (f *FileDoc) RecordID() int64 { return f.ID }

// Project statuses as stored in the tracker.
const (
	ProjectStatusActive   = 1
	ProjectStatusClosed   = 5
	ProjectStatusArchived = 9
)

// Project is a tracker project; projects are themselves searchable.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Identifier  string    `json:"identifier"`
	Description string    `json:"description"`
	Public      bool      `json:"public"`
	Status      int       `json:"status"`
	CreatedOn   time.Time `json:"created_on"`
	UpdatedOn   time.Time `json:"updated_on"`
}

func (p *Project) Kind() Kind      { return KindProject }
func (p *Project) RecordID() int64 { return p.ID }
