package preparer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
	"github.com/hashicorp-forge/distributor/pkg/syndication/adapters/mock"
)

func TestExport(t *testing.T) {
	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{
		ID:     1,
		Type:   "post",
		Status: "publish",
		Meta: map[string][]string{
			"color":                        {"blue"},
			"internal":                     {"x"},
			syndication.MetaOriginalPostID: {"9"},
			"_edit_lock":                   {"123:1"},
		},
		Terms: map[string][]syndication.TermRef{
			"category": {{Name: "Breaking News"}, {Slug: "kept"}, {}},
		},
	})
	p := New(repo, WithExcludedMeta("internal"))

	c, err := p.Export(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"color": {"blue"}}, c.Meta)
	require.Len(t, c.Terms["category"], 2)
	assert.Equal(t, "breaking-news", c.Terms["category"][0].Slug)
	assert.Equal(t, "kept", c.Terms["category"][1].Slug)
}

func TestExportErrors(t *testing.T) {
	repo := mock.NewFakeRepository()
	p := New(repo)

	_, err := p.Export(context.Background(), 404)
	assert.True(t, syndication.IsNotFound(err))

	repo.Put(&syndication.Content{ID: 2, Type: "post"})
	_, err = p.Export(context.Background(), 2)
	assert.ErrorContains(t, err, "incomplete")
}

func TestImport(t *testing.T) {
	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{
		ID:     1,
		Type:   "post",
		Status: "draft",
		Meta: map[string][]string{
			"stale":                        {"old"},
			syndication.MetaOriginalPostID: {"9"},
		},
	})
	p := New(repo)

	err := p.Import(context.Background(), 1, &syndication.Content{
		Meta: map[string][]string{
			"color":                        {"red"},
			syndication.MetaOriginalPostID: {"spoofed"},
		},
		Terms: map[string][]syndication.TermRef{"tag": {{Name: "Go"}}},
		Media: []syndication.MediaRef{{SourceURL: "https://cdn.example.com/a.png"}},
	})
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"color":                        {"red"},
		syndication.MetaOriginalPostID: {"9"},
	}, got.Meta)
	assert.Equal(t, "go", got.Terms["tag"][0].Slug)
	require.Len(t, got.Media, 1)
	assert.Equal(t, []string{"https://cdn.example.com/a.png"}, got.Media[0].Meta[syndication.MetaOriginalMediaURL])
}

type failingStore struct {
	*mock.FakeRepository
}

func (failingStore) SetTerms(context.Context, int64, map[string][]syndication.TermRef) error {
	return errors.New("terms unavailable")
}

func TestImportAggregatesFailures(t *testing.T) {
	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{ID: 1, Type: "post", Status: "draft"})
	p := New(failingStore{repo})

	err := p.Import(context.Background(), 1, &syndication.Content{
		Meta:  map[string][]string{"color": {"red"}},
		Media: []syndication.MediaRef{{Title: "no source"}, {SourceURL: "https://cdn.example.com/b.png"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terms unavailable")
	assert.Contains(t, err.Error(), "source_url is required")

	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, got.Meta["color"], "meta is applied even when terms fail")
	assert.Len(t, got.Media, 1)
}

func TestRecordOrigin(t *testing.T) {
	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{ID: 1, Type: "post", Status: "draft", Meta: map[string][]string{"color": {"red"}}})
	p := New(repo)

	pulledAt := time.Unix(1700000000, 0)
	err := p.RecordOrigin(context.Background(), 1, syndication.Origin{
		ConnectionID: 4,
		RemotePostID: 55,
		RemoteURL:    "https://remote.example.com/posts/55",
		PulledAt:     pulledAt,
	})
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, got.Meta["color"])
	assert.Equal(t, []string{"55"}, got.Meta[syndication.MetaOriginalPostID])
	assert.Equal(t, []string{"https://remote.example.com/posts/55"}, got.Meta[syndication.MetaOriginalPostURL])
	assert.Equal(t, []string{"4"}, got.Meta[syndication.MetaOriginalSourceID])
	assert.Equal(t, []string{"1700000000"}, got.Meta[syndication.MetaSyndicateTime])
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Breaking News", "breaking-news"},
		{"already-slugged", "already-slugged"},
		{"snake_case", "snake-case"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.name))
		})
	}
}
