package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/distributor/pkg/auth"
	"github.com/hashicorp-forge/distributor/pkg/preparer"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
	"github.com/hashicorp-forge/distributor/pkg/syndication/adapters/mock"
	"github.com/hashicorp-forge/distributor/pkg/transport"
)

type staticResolver map[int64]syndication.Connection

func (r staticResolver) Connection(id int64) (syndication.Connection, bool) {
	c, ok := r[id]
	return c, ok
}

func TestNotifierSendsUpdates(t *testing.T) {
	var mu sync.Mutex
	var received []UpdateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/"+UpdatePath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req UpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		received = append(received, req)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{ID: 1, Type: "post", Title: "Updated", Status: "publish", Meta: map[string][]string{"color": {"red"}}})
	_, err := repo.EnsureSubscription(context.Background(), &syndication.Subscription{LocalID: 1, ConnectionID: 2, RemotePostID: 20, Signature: "sig"})
	require.NoError(t, err)

	client, err := transport.New(nil, nil)
	require.NoError(t, err)
	resolver := staticResolver{2: {ID: 2, Name: "target", BaseURL: server.URL + "/api/", Auth: auth.NewToken("secret")}}
	notifier := NewNotifier(repo, preparer.New(repo), resolver, client, nil)
	notifier.Register(repo.Hooks)

	_, err = repo.Save(context.Background(), &syndication.Content{ID: 1, Type: "post", Title: "Updated", Status: "publish"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, int64(20), received[0].PostID)
	assert.Equal(t, "sig", received[0].Signature)
	assert.Equal(t, "Updated", received[0].PostData.Title)
	assert.Equal(t, []string{"red"}, received[0].PostData.Meta["color"])
}

func TestNotifierWithoutSubscriptions(t *testing.T) {
	repo := mock.NewFakeRepository()
	client := &mock.RecordingClient{}
	notifier := NewNotifier(repo, preparer.New(repo), staticResolver{}, client, nil)

	require.NoError(t, notifier.Notify(context.Background(), 1))
	assert.Equal(t, 0, client.Calls())
}

func TestNotifierAggregatesFailures(t *testing.T) {
	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{ID: 1, Type: "post", Status: "publish"})
	ctx := context.Background()
	for _, connID := range []int64{2, 3, 4} {
		_, err := repo.EnsureSubscription(ctx, &syndication.Subscription{LocalID: 1, ConnectionID: connID, RemotePostID: connID * 10, Signature: "sig"})
		require.NoError(t, err)
	}

	client := &mock.RecordingClient{Response: &syndication.Response{StatusCode: http.StatusGone, Header: http.Header{}}}
	resolver := staticResolver{
		2: {ID: 2, Name: "two", BaseURL: "https://two.example.com", Auth: auth.Internal{}},
		3: {ID: 3, Name: "three", BaseURL: "https://three.example.com", Auth: auth.Internal{}},
	}
	notifier := NewNotifier(repo, preparer.New(repo), resolver, client, nil)

	err := notifier.Notify(ctx, 1)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 3)
	assert.Equal(t, 2, client.Calls(), "unconfigured connections are not contacted")

	kinds := map[syndication.Kind]int{}
	for _, e := range merr.Errors {
		var delivery *DeliveryError
		require.True(t, errors.As(e, &delivery))
		kinds[syndication.KindOf(delivery)]++
	}
	assert.Equal(t, 2, kinds[syndication.KindRemoteRejected])
	assert.Equal(t, 1, kinds[syndication.KindNotFound])
}

func newReceiverFixture(t *testing.T) (*Receiver, *mock.FakeRepository) {
	t.Helper()
	repo := mock.NewFakeRepository()
	repo.Put(&syndication.Content{
		ID:     5,
		Type:   "post",
		Title:  "Copy",
		Status: "publish",
		Author: "editor",
		Meta:   map[string][]string{syndication.MetaOriginalPostID: {"1"}},
	})
	return NewReceiver(repo, preparer.New(repo), repo.Hooks, nil), repo
}

func TestReceiverReceive(t *testing.T) {
	receiver, repo := newReceiverFixture(t)
	ctx := context.Background()

	err := receiver.Receive(ctx, ReceiveRequest{PostID: 5, RemotePostID: 1, Signature: "sig", TargetURL: "https://origin.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://origin.example.com", repo.Inbound[5].TargetURL)

	err = receiver.Receive(ctx, ReceiveRequest{PostID: 6, RemotePostID: 1, Signature: "sig"})
	assert.True(t, syndication.IsNotFound(err))

	err = receiver.Receive(ctx, ReceiveRequest{PostID: 5})
	assert.Equal(t, syndication.KindRemoteRejected, syndication.KindOf(err))
}

func TestReceiverUpdate(t *testing.T) {
	receiver, repo := newReceiverFixture(t)
	ctx := context.Background()
	require.NoError(t, receiver.Receive(ctx, ReceiveRequest{PostID: 5, RemotePostID: 1, Signature: "sig"}))

	var fired int
	repo.Hooks.On(syndication.HookContentSaved, func(context.Context, int64) error {
		fired++
		return nil
	})

	_, err := receiver.Update(ctx, UpdateRequest{PostID: 5, Signature: "forged"})
	assert.Equal(t, syndication.KindUnauthorized, syndication.KindOf(err))

	updated, err := receiver.Update(ctx, UpdateRequest{
		PostID:    5,
		Signature: "sig",
		PostData: PostData{
			Title: "New title",
			Meta:  map[string][]string{"color": {"green"}},
			Terms: map[string][]syndication.TermRef{"tag": {{Slug: "go"}}},
		},
	})
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 0, fired)

	got, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "publish", got.Status)
	assert.Equal(t, "editor", got.Author)
	assert.Equal(t, []string{"green"}, got.Meta["color"])
	assert.Equal(t, []string{"1"}, got.Meta[syndication.MetaOriginalPostID])
	assert.Equal(t, "go", got.Terms["tag"][0].Slug)
}

func TestReceiverIgnoresUnlinkedCopies(t *testing.T) {
	receiver, repo := newReceiverFixture(t)
	ctx := context.Background()
	require.NoError(t, receiver.Receive(ctx, ReceiveRequest{PostID: 5, RemotePostID: 1, Signature: "sig"}))
	require.NoError(t, repo.SetMeta(ctx, 5, map[string][]string{syndication.MetaUnlinked: {"1"}}, func(string) bool { return true }))

	updated, err := receiver.Update(ctx, UpdateRequest{PostID: 5, Signature: "sig", PostData: PostData{Title: "Ignored"}})
	require.NoError(t, err)
	assert.False(t, updated)

	got, err := repo.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Copy", got.Title)
}

func TestPostDataRoundTrip(t *testing.T) {
	var data PostData
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Hello",
		"content": "<p>World</p>",
		"excerpt": "Hi",
		"slug": "hello",
		"status": "publish",
		"post_type": "post",
		"distributor_meta": {"color": ["blue"]}
	}`), &data))
	assert.Equal(t, "<p>World</p>", data.Content)

	c := data.ToContent(9)
	assert.Equal(t, int64(9), c.ID)
	assert.Equal(t, "<p>World</p>", c.Body)
	assert.Equal(t, "post", c.Type)
	assert.Equal(t, []string{"blue"}, c.Meta["color"])

	assert.Equal(t, data, PostDataFromContent(c))
}
