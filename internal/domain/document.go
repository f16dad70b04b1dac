package domain

import (
	"fmt"
	"time"
)

// Document is the canonical projection of a record stored in the search
// engine. Field names and types are the wire schema: the index mapping in
// internal/indexer must stay in sync with the json tags here.
type Document struct {
	ID            int64      `json:"id"`
	Type          Kind       `json:"type"`
	ProjectID     *int64     `json:"project_id"`
	ProjectPublic bool       `json:"project_is_public"`
	CreatedOn     *time.Time `json:"created_on"`
	UpdatedOn     *time.Time `json:"updated_on"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AuthorID      int64      `json:"author_id,omitempty"`

	WorkItem     *WorkItemFields `json:"work_item_fields,omitempty"`
	CustomFields []CustomField   `json:"custom_fields,omitempty"`
	Attachments  []AttachmentDoc `json:"attachments,omitempty"`

	// Forum post
	BoardID  int64  `json:"board_id,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
	// Commit
	RepositoryID int64 `json:"repository_id,omitempty"`
	// File
	CategoryID int64 `json:"category_id,omitempty"`
	// Project
	Status int `json:"status,omitempty"`
}

// WorkItemFields carries the permission-relevant work item metadata the
// coarse filter matches against, plus the nested journal entries.
type WorkItemFields struct {
	Private      bool           `json:"is_private"`
	AuthorID     int64          `json:"author_id"`
	AssignedToID *int64         `json:"assigned_to_id"`
	TrackerID    int64          `json:"tracker_id"`
	StatusID     int64          `json:"status_id"`
	StatusClosed bool           `json:"status_is_closed"`
	PriorityID   int64          `json:"priority_id"`
	Journals     []JournalEntry `json:"journals"`
}

// JournalEntry is one indexed journal note. The privacy flag and author stay
// on the entry so post-filtering can hide private notes selectively.
type JournalEntry struct {
	ID        int64      `json:"id"`
	Notes     string     `json:"notes"`
	Private   bool       `json:"is_private"`
	UserID    int64      `json:"user_id"`
	CreatedOn *time.Time `json:"created_on"`
}

// CustomField is one indexed custom field value, flattened to a string.
type CustomField struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AttachmentDoc is indexed attachment metadata.
type AttachmentDoc struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	Description string `json:"description"`
}

// DocumentID returns the index identity of a document: "{kind}_{id}".
// Re-writing the same identity overwrites in place.
func DocumentID(kind Kind, id int64) string {
	return fmt.Sprintf("%s_%d", kind, id)
}

// DocID returns the document's own index identity.
func (d *Document) DocID() string {
	return DocumentID(d.Type, d.ID)
}
