// Package docbuilder maps tracker records to index documents. The mapping is
// pure: no I/O, no engine knowledge.
package docbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/stackfield/tracksearch/internal/domain"
)

type buildFunc func(domain.Record) (domain.Document, error)

// One mapping function per record variant. Adding a searchable kind is a
// single new entry here plus its mapping function.
var buildFuncs = map[domain.Kind]buildFunc{
	domain.KindWorkItem:     buildWorkItem,
	domain.KindWikiPage:     buildWikiPage,
	domain.KindAnnouncement: buildAnnouncement,
	domain.KindForumPost:    buildForumPost,
	domain.KindCommit:       buildCommit,
	domain.KindFile:         buildFile,
	domain.KindProject:      buildProject,
}

// Build projects a record into its index document. An unknown variant is a
// programming error and is reported, never swallowed.
func Build(rec domain.Record) (domain.Document, error) {
	if rec == nil {
		return domain.Document{}, domain.ErrUnsupportedRecord
	}
	fn, ok := buildFuncs[rec.Kind()]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %T", domain.ErrUnsupportedRecord, rec)
	}
	return fn(rec)
}

// DocumentID returns the index identity for a record.
func DocumentID(rec domain.Record) string {
	return domain.DocumentID(rec.Kind(), rec.RecordID())
}

func buildWorkItem(rec domain.Record) (domain.Document, error) {
	w, ok := rec.(*domain.WorkItem)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	return domain.Document{
		ID:            w.ID,
		Type:          domain.KindWorkItem,
		ProjectID:     &w.ProjectID,
		ProjectPublic: w.ProjectPublic,
		CreatedOn:     ts(w.CreatedOn),
		UpdatedOn:     ts(w.UpdatedOn),
		Title:         w.Subject,
		Content:       w.Description,
		WorkItem: &domain.WorkItemFields{
			Private:      w.Private,
			AuthorID:     w.AuthorID,
			AssignedToID: w.AssignedToID,
			TrackerID:    w.TrackerID,
			StatusID:     w.StatusID,
			StatusClosed: w.StatusClosed,
			PriorityID:   w.PriorityID,
			Journals:     buildJournals(w.Journals),
		},
		CustomFields: buildCustomFields(w.CustomFields),
		Attachments:  buildAttachments(w.Attachments),
	}, nil
}

func buildWikiPage(rec domain.Record) (domain.Document, error) {
	p, ok := rec.(*domain.WikiPage)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	return domain.Document{
		ID:            p.ID,
		Type:          domain.KindWikiPage,
		ProjectID:     p.ProjectID,
		ProjectPublic: p.ProjectPublic,
		CreatedOn:     ts(p.CreatedOn),
		UpdatedOn:     ts(p.UpdatedOn),
		Title:         p.Title,
		Content:       p.Text,
		Attachments:   buildAttachments(p.Attachments),
	}, nil
}

func buildAnnouncement(rec domain.Record) (domain.Document, error) {
	a, ok := rec.(*domain.Announcement)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	return domain.Document{
		ID:            a.ID,
		Type:          domain.KindAnnouncement,
		ProjectID:     &a.ProjectID,
		ProjectPublic: a.ProjectPublic,
		CreatedOn:     ts(a.CreatedOn),
		Title:         a.Title,
		Content:       joinNonBlank("\n", a.Summary, a.Description),
		AuthorID:      a.AuthorID,
	}, nil
}

func buildForumPost(rec domain.Record) (domain.Document, error) {
	f, ok := rec.(*domain.ForumPost)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	return domain.Document{
		ID:            f.ID,
		Type:          domain.KindForumPost,
		ProjectID:     f.ProjectID,
		ProjectPublic: f.ProjectPublic,
		CreatedOn:     ts(f.CreatedOn),
		UpdatedOn:     ts(f.UpdatedOn),
		Title:         f.Subject,
		Content:       f.Content,
		AuthorID:      f.AuthorID,
		BoardID:       f.BoardID,
		ParentID:      f.ParentID,
	}, nil
}

func buildCommit(rec domain.Record) (domain.Document, error) {
	c, ok := rec.(*domain.Commit)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	return domain.Document{
		ID:            c.ID,
		Type:          domain.KindCommit,
		ProjectID:     c.ProjectID,
		ProjectPublic: c.ProjectPublic,
		CreatedOn:     ts(c.CommittedOn),
		Title:         c.Revision,
		Content:       c.Comments,
		AuthorID:      c.CommitterID,
		RepositoryID:  c.RepositoryID,
	}, nil
}

func buildFile(rec domain.Record) (domain.Document, error) {
	f, ok := rec.(*domain.FileDoc)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	return domain.Document{
		ID:            f.ID,
		Type:          domain.KindFile,
		ProjectID:     &f.ProjectID,
		ProjectPublic: f.ProjectPublic,
		CreatedOn:     ts(f.CreatedOn),
		Title:         f.Title,
		Content:       f.Description,
		CategoryID:    f.CategoryID,
		Attachments:   buildAttachments(f.Attachments),
	}, nil
}

func buildProject(rec domain.Record) (domain.Document, error) {
	p, ok := rec.(*domain.Project)
	if !ok {
		return domain.Document{}, mismatch(rec)
	}
	id := p.ID
	return domain.Document{
		ID:            p.ID,
		Type:          domain.KindProject,
		ProjectID:     &id,
		ProjectPublic: p.Public,
		CreatedOn:     ts(p.CreatedOn),
		UpdatedOn:     ts(p.UpdatedOn),
		Title:         p.Name,
		Content:       joinNonBlank("\n", p.Identifier, p.Description),
		Status:        p.Status,
	}, nil
}

// buildJournals keeps only entries with non-blank notes. The privacy flag
// and author are carried per entry so post-filtering can hide private notes.
func buildJournals(journals []domain.Journal) []domain.JournalEntry {
	entries := make([]domain.JournalEntry, 0, len(journals))
	for _, j := range journals {
		if strings.TrimSpace(j.Notes) == "" {
			continue
		}
		entries = append(entries, domain.JournalEntry{
			ID:        j.ID,
			Notes:     j.Notes,
			Private:   j.Private,
			UserID:    j.UserID,
			CreatedOn: ts(j.CreatedOn),
		})
	}
	return entries
}

// buildCustomFields keeps searchable fields with a non-blank value.
// Multi-value fields are flattened to one space-joined string.
func buildCustomFields(fields []domain.CustomFieldValue) []domain.CustomField {
	var out []domain.CustomField
	for _, f := range fields {
		if !f.Searchable {
			continue
		}
		value := joinNonBlank(" ", f.Values...)
		if value == "" {
			continue
		}
		out = append(out, domain.CustomField{ID: f.ID, Name: f.Name, Value: value})
	}
	return out
}

// buildAttachments carries filename and description only; extracted fulltext
// is supplied by the attachment-fulltext workflow, not built here.
func buildAttachments(attachments []domain.Attachment) []domain.AttachmentDoc {
	var out []domain.AttachmentDoc
	for _, a := range attachments {
		if strings.TrimSpace(a.Filename) == "" {
			continue
		}
		out = append(out, domain.AttachmentDoc{
			ID:          a.ID,
			Filename:    a.Filename,
			Description: a.Description,
		})
	}
	return out
}

func ts(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func joinNonBlank(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func mismatch(rec domain.Record) error {
	return fmt.Errorf("%w: %T tagged as %s", domain.ErrUnsupportedRecord, rec, rec.Kind())
}
