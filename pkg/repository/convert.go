package repository

import (
	"github.com/hashicorp-forge/distributor/pkg/models"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

func itemFromContent(c *syndication.Content) *models.Item {
	return &models.Item{
		ID:       c.ID,
		Type:     c.Type,
		Title:    c.Title,
		Body:     c.Body,
		Excerpt:  c.Excerpt,
		Slug:     c.Slug,
		Status:   c.Status,
		Author:   c.Author,
		ParentID: c.ParentID,
	}
}

// contentFromItem converts a loaded item. parents maps term IDs to slugs for
// resolving TermRef.ParentSlug.
func contentFromItem(item *models.Item, parents map[int64]string) *syndication.Content {
	c := &syndication.Content{
		ID:       item.ID,
		Type:     item.Type,
		Title:    item.Title,
		Body:     item.Body,
		Excerpt:  item.Excerpt,
		Slug:     item.Slug,
		Status:   item.Status,
		Author:   item.Author,
		ParentID: item.ParentID,
		Date:     item.CreatedAt,
		Modified: item.UpdatedAt,
		Meta:     map[string][]string{},
		Terms:    map[string][]syndication.TermRef{},
		Media:    []syndication.MediaRef{},
	}

	for _, m := range item.Meta {
		c.Meta[m.Key] = append(c.Meta[m.Key], m.Value)
	}
	for _, t := range item.Terms {
		c.Terms[t.Taxonomy] = append(c.Terms[t.Taxonomy], syndication.TermRef{
			ID:         t.ID,
			Name:       t.Name,
			Slug:       t.Slug,
			ParentSlug: parents[t.ParentID],
		})
	}
	for _, m := range item.Media {
		c.Media = append(c.Media, syndication.MediaRef{
			ID:        m.ID,
			SourceURL: m.SourceURL,
			Title:     m.Title,
			Caption:   m.Caption,
			AltText:   m.AltText,
			MimeType:  m.MimeType,
			Featured:  m.Featured,
			Meta:      m.Meta,
		})
	}
	return c
}

func linkageFromModel(l *models.Linkage) *syndication.Linkage {
	return &syndication.Linkage{
		LocalID:      l.LocalID,
		ConnectionID: l.ConnectionID,
		RemotePostID: l.RemotePostID,
		RemoteURL:    l.RemoteURL,
		Direction:    syndication.Direction(l.Direction),
		Unlinked:     l.Unlinked,
		SyncedAt:     l.SyncedAt,
	}
}

func subscriptionFromModel(s *models.Subscription) *syndication.Subscription {
	return &syndication.Subscription{
		LocalID:      s.LocalID,
		ConnectionID: s.ConnectionID,
		RemotePostID: s.RemotePostID,
		Signature:    s.Signature,
		TargetURL:    s.TargetURL,
		CreatedAt:    s.CreatedAt,
	}
}
