package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/distributor/pkg/preparer"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
	"github.com/hashicorp-forge/distributor/pkg/syndication/adapters/mock"
)

func newPair(t *testing.T) (*Connection, *mock.FakeRepository, *mock.FakeRepository) {
	t.Helper()
	origin := mock.NewFakeRepository()
	target := mock.NewFakeRepository()

	conn, err := New(syndication.Connection{ID: 3, Name: "sister", BaseURL: "https://sister.example.com/api/posts"},
		Side{Store: origin, Preparer: preparer.New(origin), Hooks: origin.Hooks},
		Side{Store: target, Preparer: preparer.New(target), Hooks: target.Hooks},
		nil,
	)
	require.NoError(t, err)
	return conn, origin, target
}

func TestPush(t *testing.T) {
	conn, origin, target := newPair(t)
	ctx := context.Background()
	origin.Put(&syndication.Content{
		ID:     1,
		Type:   "post",
		Title:  "Hello",
		Status: "publish",
		Meta:   map[string][]string{"color": {"blue"}},
		Terms:  map[string][]syndication.TermRef{"tag": {{Name: "Go Lang"}}},
	})

	var fired int
	target.Hooks.On(syndication.HookContentSaved, func(context.Context, int64) error {
		fired++
		return nil
	})

	result, err := conn.Push(ctx, 1, syndication.PushOptions{Status: "draft"})
	require.NoError(t, err)
	assert.True(t, result.Linked)
	assert.Equal(t, "https://sister.example.com/api/posts/1", result.RemoteURL)
	assert.Equal(t, 0, fired)

	copied, err := target.Get(ctx, result.RemotePostID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", copied.Title)
	assert.Equal(t, "draft", copied.Status)
	assert.Equal(t, []string{"blue"}, copied.Meta["color"])
	assert.Equal(t, "go-lang", copied.Terms["tag"][0].Slug)
	assert.Equal(t, []string{"1"}, copied.Meta[syndication.MetaOriginalPostID])

	again, err := conn.Push(ctx, 1, syndication.PushOptions{})
	require.NoError(t, err)
	assert.Equal(t, result.RemotePostID, again.RemotePostID)
	assert.Len(t, target.Items, 1)
	assert.Equal(t, 1, origin.SubscriptionCount())

	sub, err := origin.GetSubscription(ctx, 1, conn.Info().ID)
	require.NoError(t, err)
	assert.Len(t, sub.Signature, 32)
	assert.Equal(t, result.RemoteURL, sub.TargetURL)
}

func TestPushMissingItem(t *testing.T) {
	conn, _, _ := newPair(t)
	_, err := conn.Push(context.Background(), 9, syndication.PushOptions{})
	assert.True(t, syndication.IsNotFound(err))
}

func TestPull(t *testing.T) {
	conn, origin, target := newPair(t)
	ctx := context.Background()
	target.Put(&syndication.Content{ID: 20, Type: "post", Title: "Remote", Status: "publish"})

	refs := []syndication.ItemReference{
		{RemotePostID: 21, PostType: "post"},
		{RemotePostID: 20, PostType: "post"},
		{RemotePostID: 20, PostType: "widget"},
	}
	report := conn.Pull(ctx, refs)
	require.Len(t, report, 3)
	assert.Equal(t, syndication.PullFailed, report[0].Status)
	assert.Equal(t, syndication.PullCreated, report[1].Status)
	assert.Equal(t, syndication.PullFailed, report[2].Status)
	assert.True(t, syndication.IsNotFound(report[2].Err))

	pulled, err := origin.Get(ctx, report[1].LocalID)
	require.NoError(t, err)
	assert.Equal(t, "Remote", pulled.Title)
	assert.Equal(t, []string{"20"}, pulled.Meta[syndication.MetaOriginalPostID])
	assert.Equal(t, []string{"3"}, pulled.Meta[syndication.MetaOriginalSourceID])

	report = conn.Pull(ctx, refs[1:2])
	assert.Equal(t, syndication.PullUpdated, report[0].Status)

	require.NoError(t, origin.SetUnlinked(ctx, pulled.ID, 3, true))
	report = conn.Pull(ctx, refs[1:2])
	assert.Equal(t, syndication.PullSkipped, report[0].Status)
	assert.Equal(t, pulled.ID, report[0].LocalID)
}

func TestCheckConnections(t *testing.T) {
	conn, _, _ := newPair(t)
	health := conn.CheckConnections(context.Background())
	assert.True(t, health.Reachable)
	assert.False(t, health.Has(syndication.HealthNoDistributor))
	assert.Contains(t, health.Errors, syndication.HealthNoDistributor)
}
