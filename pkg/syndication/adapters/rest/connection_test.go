package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/distributor/pkg/auth"
	"github.com/hashicorp-forge/distributor/pkg/preparer"
	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
	"github.com/hashicorp-forge/distributor/pkg/syndication/adapters/mock"
	"github.com/hashicorp-forge/distributor/pkg/transport"
)

// fakeRemote is a minimal REST remote serving one posts collection.
type fakeRemote struct {
	mu sync.Mutex

	server *httptest.Server
	marker string
	link   string

	// collection is the path items are served under
	collection string
	items      map[int64]map[string]interface{}
	nextID     int64

	pushes        []pushBody
	registrations []subscriptions.ReceiveRequest

	rejectStatus int
	types        map[string]string

	// index, when set, replaces the generated API index
	index map[string]interface{}
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	r := &fakeRemote{
		collection: "/posts",
		items:      make(map[int64]map[string]interface{}),
		nextID:     100,
	}
	r.server = httptest.NewServer(r)
	t.Cleanup(r.server.Close)
	return r
}

func (r *fakeRemote) URL() string {
	return r.server.URL
}

func (r *fakeRemote) addItem(id int64, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields["id"] = id
	r.items[id] = fields
}

func (r *fakeRemote) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.marker != "" {
		w.Header().Set(syndication.HeaderMarker, r.marker)
	}
	if r.link != "" {
		w.Header().Set("Link", r.link)
	}
	w.Header().Set("Content-Type", "application/json")

	if r.rejectStatus != 0 {
		w.WriteHeader(r.rejectStatus)
		_, _ = w.Write([]byte(`{"code":"rest_cannot_create","message":"Sorry, you are not allowed to do that."}`))
		return
	}

	switch {
	case req.URL.Path == "/" && req.Method == http.MethodGet && r.index != nil:
		r.writeJSON(w, http.StatusOK, r.index)

	case req.URL.Path == "/" && req.Method == http.MethodGet:
		r.writeJSON(w, http.StatusOK, map[string]interface{}{
			"name": "remote",
			"routes": map[string]interface{}{
				r.collection: map[string]interface{}{
					"_links": map[string]interface{}{
						"self": []map[string]string{{"href": r.server.URL + r.collection}},
					},
				},
				r.collection + "/(?P<id>[\\d]+)": map[string]interface{}{},
			},
		})

	case req.URL.Path == "/types":
		if r.types == nil {
			r.writeJSON(w, http.StatusNotFound, map[string]string{"code": "rest_no_route"})
			return
		}
		index := map[string]interface{}{}
		for name, href := range r.types {
			index[name] = map[string]interface{}{
				"_links": map[string]interface{}{
					"wp:items": []map[string]string{{"href": href}},
				},
			}
		}
		r.writeJSON(w, http.StatusOK, index)

	case req.URL.Path == "/dt_subscription/receive" && req.Method == http.MethodPost:
		var sub subscriptions.ReceiveRequest
		if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
			r.writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_json"})
			return
		}
		r.registrations = append(r.registrations, sub)
		r.writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})

	case req.URL.Path == r.collection && req.Method == http.MethodPost:
		var body pushBody
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			r.writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_json"})
			return
		}
		r.nextID++
		r.pushes = append(r.pushes, body)
		r.items[r.nextID] = r.stored(r.nextID, body)
		r.writeJSON(w, http.StatusCreated, r.items[r.nextID])

	case len(req.URL.Path) > len(r.collection) && req.URL.Path[:len(r.collection)+1] == r.collection+"/":
		id, err := strconv.ParseInt(req.URL.Path[len(r.collection)+1:], 10, 64)
		if err != nil {
			r.writeJSON(w, http.StatusNotFound, map[string]string{"code": "rest_no_route"})
			return
		}
		if _, ok := r.items[id]; !ok {
			r.writeJSON(w, http.StatusNotFound, map[string]string{"code": "rest_post_invalid_id", "message": "Invalid post ID."})
			return
		}
		if req.Method == http.MethodPost {
			var body pushBody
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				r.writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_json"})
				return
			}
			r.pushes = append(r.pushes, body)
			r.items[id] = r.stored(id, body)
		}
		r.writeJSON(w, http.StatusOK, r.items[id])

	default:
		r.writeJSON(w, http.StatusNotFound, map[string]string{"code": "rest_no_route"})
	}
}

func (r *fakeRemote) stored(id int64, body pushBody) map[string]interface{} {
	href := fmt.Sprintf("%s%s/%d", r.server.URL, r.collection, id)
	return map[string]interface{}{
		"id":                id,
		"type":              body.Type,
		"title":             map[string]string{"rendered": body.Title, "raw": body.Title},
		"content":           map[string]string{"rendered": "<p>" + body.Content + "</p>", "raw": body.Content},
		"status":            body.Status,
		"link":              href,
		"distributor_meta":  body.Meta,
		"distributor_terms": body.Terms,
		"_links": map[string]interface{}{
			"self": []map[string]string{{"href": href}},
		},
	}
}

func (r *fakeRemote) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (r *fakeRemote) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pushes)
}

type testHarness struct {
	conn   *Connection
	repo   *mock.FakeRepository
	client *mock.RecordingClient
}

func newHarness(t *testing.T, baseURL string) *testHarness {
	t.Helper()

	httpClient, err := transport.New(nil, nil)
	require.NoError(t, err)

	repo := mock.NewFakeRepository()
	client := &mock.RecordingClient{Next: httpClient}

	conn, err := New(syndication.Connection{
		ID:      7,
		Name:    "remote",
		BaseURL: baseURL,
		Auth:    auth.NewToken("secret"),
	}, Dependencies{
		Client:        client,
		Preparer:      preparer.New(repo),
		Repository:    repo,
		Types:         repo,
		Linkage:       repo,
		Subscriptions: repo,
		Hooks:         repo.Hooks,
	}, WithConfig(&Config{
		SiteName: "Origin",
		SiteURL:  "https://origin.example.com/api",
	}))
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	return &testHarness{conn: conn, repo: repo, client: client}
}

func localPost(id int64) *syndication.Content {
	return &syndication.Content{
		ID:     id,
		Type:   "post",
		Title:  "Hello",
		Body:   "World",
		Status: "publish",
		Meta: map[string][]string{
			"color":                         {"blue"},
			syndication.MetaSubscriptionSig: {"local-only"},
		},
		Terms: map[string][]syndication.TermRef{
			"category": {{Name: "Breaking News"}},
		},
	}
}

func TestNewValidatesConnection(t *testing.T) {
	repo := mock.NewFakeRepository()
	deps := Dependencies{
		Client:        &mock.RecordingClient{},
		Preparer:      preparer.New(repo),
		Repository:    repo,
		Types:         repo,
		Linkage:       repo,
		Subscriptions: repo,
	}

	tests := []struct {
		name string
		conn syndication.Connection
		deps Dependencies
	}{
		{"missing name", syndication.Connection{BaseURL: "https://example.com", Auth: auth.Internal{}}, deps},
		{"missing base url", syndication.Connection{Name: "x", Auth: auth.Internal{}}, deps},
		{"unsupported scheme", syndication.Connection{Name: "x", BaseURL: "ftp://example.com", Auth: auth.Internal{}}, deps},
		{"missing auth", syndication.Connection{Name: "x", BaseURL: "https://example.com"}, deps},
		{"missing client", syndication.Connection{Name: "x", BaseURL: "https://example.com", Auth: auth.Internal{}}, Dependencies{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.conn, tt.deps)
			assert.Error(t, err)
		})
	}
}

func TestPushMissingItemMakesNoRequests(t *testing.T) {
	h := newHarness(t, "https://remote.example.com")

	_, err := h.conn.Push(context.Background(), 404, syndication.PushOptions{})
	require.Error(t, err)
	assert.True(t, syndication.IsNotFound(err))
	assert.Equal(t, 0, h.client.Calls())
}

func TestPushCreatesThenUpdates(t *testing.T) {
	remote := newFakeRemote(t)
	h := newHarness(t, remote.URL())
	h.repo.Put(localPost(1))
	ctx := context.Background()

	first, err := h.conn.Push(ctx, 1, syndication.PushOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(101), first.RemotePostID)
	assert.Equal(t, remote.URL()+"/posts/101", first.RemoteURL)
	assert.False(t, first.Linked, "remote without the protocol marker cannot be subscribed")

	linkage, err := h.repo.PushedLinkage(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(101), linkage.RemotePostID)

	second, err := h.conn.Push(ctx, 1, syndication.PushOptions{Status: "draft"})
	require.NoError(t, err)
	assert.Equal(t, int64(101), second.RemotePostID)
	assert.Equal(t, 2, remote.pushCount())

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Equal(t, "draft", remote.pushes[1].Status)
	assert.Equal(t, []string{"blue"}, remote.pushes[0].Meta["color"])
	assert.NotContains(t, remote.pushes[0].Meta, syndication.MetaSubscriptionSig)
	assert.Equal(t, "breaking-news", remote.pushes[0].Terms["category"][0].Slug)
	assert.Equal(t, int64(1), remote.pushes[0].OriginalPostID)
	assert.Equal(t, int64(7), remote.pushes[0].OriginalSourceID)
	assert.Equal(t, "Origin", remote.pushes[0].OriginalSiteName)
	assert.Empty(t, remote.registrations)
	assert.Equal(t, 0, h.repo.SubscriptionCount())
}

func TestPushSubscribesOnceWhenRemoteSpeaksProtocol(t *testing.T) {
	remote := newFakeRemote(t)
	remote.marker = "true"
	h := newHarness(t, remote.URL())
	h.repo.Put(localPost(1))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := h.conn.Push(ctx, 1, syndication.PushOptions{})
		require.NoError(t, err)
		assert.True(t, result.Linked)
		assert.Equal(t, int64(101), result.RemotePostID)
	}

	assert.Equal(t, 1, h.repo.SubscriptionCount())

	remote.mu.Lock()
	defer remote.mu.Unlock()
	require.Len(t, remote.registrations, 1)
	sub := remote.registrations[0]
	assert.Equal(t, int64(101), sub.PostID)
	assert.Equal(t, int64(1), sub.RemotePostID)
	assert.Equal(t, "https://origin.example.com/api", sub.TargetURL)
	assert.NotEmpty(t, sub.Signature)

	stored, err := h.repo.GetSubscription(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, sub.Signature, stored.Signature)

	supported, known := h.conn.SupportsProtocol()
	assert.True(t, known)
	assert.True(t, supported)
}

func TestPushRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   syndication.Kind
	}{
		{"bad request", http.StatusBadRequest, syndication.KindRemoteRejected},
		{"server error", http.StatusInternalServerError, syndication.KindRemoteRejected},
		{"unauthorized", http.StatusUnauthorized, syndication.KindUnauthorized},
		{"forbidden", http.StatusForbidden, syndication.KindUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote(t)
			remote.rejectStatus = tt.status
			h := newHarness(t, remote.URL())
			h.repo.Put(localPost(1))

			_, err := h.conn.Push(context.Background(), 1, syndication.PushOptions{})
			require.Error(t, err)
			assert.Equal(t, tt.kind, syndication.KindOf(err))
			assert.Contains(t, err.Error(), "Sorry, you are not allowed to do that.")

			_, err = h.repo.PushedLinkage(context.Background(), 1, 7)
			assert.True(t, syndication.IsNotFound(err))
		})
	}
}

func TestPushNetworkError(t *testing.T) {
	remote := newFakeRemote(t)
	h := newHarness(t, remote.URL())
	h.repo.Put(localPost(1))
	remote.server.Close()

	_, err := h.conn.Push(context.Background(), 1, syndication.PushOptions{})
	require.Error(t, err)
	assert.Equal(t, syndication.KindNetwork, syndication.KindOf(err))
}

func TestPullPreservesOrderAndIsolatesFailures(t *testing.T) {
	remote := newFakeRemote(t)
	remote.marker = "yes"
	remote.addItem(10, map[string]interface{}{
		"type":             "post",
		"title":            map[string]string{"rendered": "Ten"},
		"status":           "publish",
		"link":             remote.URL() + "/posts/10",
		"distributor_meta": map[string]interface{}{"color": "red"},
		"distributor_terms": map[string]interface{}{
			"category": []map[string]interface{}{{"name": "News", "slug": "news", "parent": 0}},
		},
	})
	remote.addItem(11, map[string]interface{}{"title": "Eleven"})
	h := newHarness(t, remote.URL())
	ctx := context.Background()

	refs := []syndication.ItemReference{
		{RemotePostID: 10, PostType: "post"},
		{RemotePostID: 99, PostType: "post"},
		{RemotePostID: 11, PostType: "post"},
	}
	report := h.conn.Pull(ctx, refs)
	require.Len(t, report, 3)

	assert.Equal(t, syndication.PullCreated, report[0].Status)
	assert.Equal(t, syndication.PullFailed, report[1].Status)
	assert.True(t, syndication.IsNotFound(report[1].Err))
	assert.Equal(t, syndication.PullCreated, report[2].Status)
	for i, outcome := range report {
		assert.Equal(t, refs[i], outcome.Ref)
	}
	assert.Len(t, report.Failed(), 1)

	ten, err := h.repo.Get(ctx, report[0].LocalID)
	require.NoError(t, err)
	assert.Equal(t, "Ten", ten.Title)
	assert.Equal(t, []string{"red"}, ten.Meta["color"])
	assert.Equal(t, "news", ten.Terms["category"][0].Slug)
	assert.Equal(t, []string{"10"}, ten.Meta[syndication.MetaOriginalPostID])
	assert.Equal(t, []string{"7"}, ten.Meta[syndication.MetaOriginalSourceID])
	assert.Equal(t, []string{remote.URL() + "/posts/10"}, ten.Meta[syndication.MetaOriginalPostURL])

	eleven, err := h.repo.Get(ctx, report[2].LocalID)
	require.NoError(t, err)
	assert.Equal(t, "draft", eleven.Status)
	assert.Equal(t, "post", eleven.Type)

	again := h.conn.Pull(ctx, refs[:1])
	require.Len(t, again, 1)
	assert.Equal(t, syndication.PullUpdated, again[0].Status)
	assert.Equal(t, report[0].LocalID, again[0].LocalID)
}

func TestPullWithoutProtocolSkipsImport(t *testing.T) {
	remote := newFakeRemote(t)
	remote.addItem(10, map[string]interface{}{
		"title":            "Plain",
		"distributor_meta": map[string]interface{}{"color": "red"},
	})
	h := newHarness(t, remote.URL())
	ctx := context.Background()

	report := h.conn.Pull(ctx, []syndication.ItemReference{{RemotePostID: 10, PostType: "post"}})
	require.Len(t, report, 1)
	require.NoError(t, report[0].Err)
	assert.Equal(t, syndication.PullCreated, report[0].Status)

	item, err := h.repo.Get(ctx, report[0].LocalID)
	require.NoError(t, err)
	assert.Equal(t, "Plain", item.Title)
	assert.NotContains(t, item.Meta, "color")
	assert.Equal(t, []string{"10"}, item.Meta[syndication.MetaOriginalPostID])
}

func TestPullSkipsUnlinkedCopies(t *testing.T) {
	remote := newFakeRemote(t)
	remote.addItem(10, map[string]interface{}{"title": "Original"})
	h := newHarness(t, remote.URL())
	ctx := context.Background()
	ref := syndication.ItemReference{RemotePostID: 10, PostType: "post"}

	first := h.conn.Pull(ctx, []syndication.ItemReference{ref})
	require.Equal(t, syndication.PullCreated, first[0].Status)
	require.NoError(t, h.repo.SetUnlinked(ctx, first[0].LocalID, 7, true))

	remote.addItem(10, map[string]interface{}{"title": "Changed"})
	second := h.conn.Pull(ctx, []syndication.ItemReference{ref})
	require.Len(t, second, 1)
	assert.Equal(t, syndication.PullSkipped, second[0].Status)
	assert.Equal(t, first[0].LocalID, second[0].LocalID)
	assert.NoError(t, second[0].Err)

	item, err := h.repo.Get(ctx, first[0].LocalID)
	require.NoError(t, err)
	assert.Equal(t, "Original", item.Title)
}

func TestPullSuspendsSaveHooks(t *testing.T) {
	remote := newFakeRemote(t)
	remote.addItem(10, map[string]interface{}{"title": "Ten"})
	h := newHarness(t, remote.URL())
	ctx := context.Background()

	var fired []int64
	h.repo.Hooks.On(syndication.HookContentSaved, func(_ context.Context, id int64) error {
		fired = append(fired, id)
		return nil
	})

	var (
		pullCtx     context.Context
		suspended   bool
		unrelatedID int64
	)
	h.client.OnDo = func(ctx context.Context, _ *syndication.Request) {
		if pullCtx != nil {
			return
		}
		pullCtx = ctx
		suspended = h.repo.Hooks.Suspended(ctx, syndication.HookContentSaved)

		// Writes outside the pull keep firing while it runs.
		id, err := h.repo.Save(context.Background(), localPost(0))
		require.NoError(t, err)
		unrelatedID = id
	}

	report := h.conn.Pull(ctx, []syndication.ItemReference{{RemotePostID: 10, PostType: "post"}})
	require.NoError(t, report[0].Err)
	assert.True(t, suspended)
	assert.Equal(t, []int64{unrelatedID}, fired)
	assert.False(t, h.repo.Hooks.Suspended(pullCtx, syndication.HookContentSaved))

	_, err := h.repo.Save(pullCtx, localPost(0))
	require.NoError(t, err)
	assert.Len(t, fired, 2)
}

func TestPushRestoresSaveHooks(t *testing.T) {
	tests := []struct {
		name    string
		reject  int
		offline bool
		wantErr bool
	}{
		{name: "success"},
		{name: "rejected", reject: http.StatusBadRequest, wantErr: true},
		{name: "network error", offline: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote(t)
			remote.rejectStatus = tt.reject
			h := newHarness(t, remote.URL())
			h.repo.Put(localPost(1))
			if tt.offline {
				remote.server.Close()
			}

			var fired int
			h.repo.Hooks.On(syndication.HookContentSaved, func(context.Context, int64) error {
				fired++
				return nil
			})

			var (
				pushCtx   context.Context
				suspended bool
			)
			h.client.OnDo = func(ctx context.Context, _ *syndication.Request) {
				if pushCtx == nil {
					pushCtx = ctx
					suspended = h.repo.Hooks.Suspended(ctx, syndication.HookContentSaved)
				}
			}

			_, err := h.conn.Push(context.Background(), 1, syndication.PushOptions{})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			require.NotNil(t, pushCtx)
			assert.True(t, suspended)
			assert.False(t, h.repo.Hooks.Suspended(pushCtx, syndication.HookContentSaved))
			assert.False(t, h.repo.Hooks.Suspended(h.repo.LastContext(), syndication.HookContentSaved))

			_, err = h.repo.Save(pushCtx, localPost(0))
			require.NoError(t, err)
			assert.Equal(t, 1, fired)
		})
	}
}

func TestPullRetriesFailedImportInPlace(t *testing.T) {
	remote := newFakeRemote(t)
	remote.marker = "yes"
	remote.addItem(10, map[string]interface{}{
		"type":              "post",
		"title":             map[string]string{"rendered": "Ten"},
		"distributor_media": []map[string]interface{}{{"id": 5}},
	})
	h := newHarness(t, remote.URL())
	ctx := context.Background()
	ref := syndication.ItemReference{RemotePostID: 10, PostType: "post"}

	first := h.conn.Pull(ctx, []syndication.ItemReference{ref})
	require.Len(t, first, 1)
	require.Error(t, first[0].Err)
	assert.Equal(t, syndication.PullFailed, first[0].Status)
	require.NotZero(t, first[0].LocalID)

	second := h.conn.Pull(ctx, []syndication.ItemReference{ref})
	require.Len(t, second, 1)
	require.Error(t, second[0].Err)
	assert.Equal(t, first[0].LocalID, second[0].LocalID)
	assert.Len(t, h.repo.Items, 1)
	assert.Equal(t, 1, strings.Count(second[0].Err.Error(), "failed to import item"))

	linkage, err := h.repo.PulledLinkage(ctx, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, first[0].LocalID, linkage.LocalID)
}

func TestRemoteGetWithoutNetwork(t *testing.T) {
	h := newHarness(t, "https://remote.example.com")
	h.repo.Types["attachment"] = syndication.TypeInfo{Name: "attachment", RestBase: "media"}

	tests := []struct {
		name string
		ref  syndication.ItemReference
	}{
		{"unregistered type", syndication.ItemReference{RemotePostID: 1, PostType: "product"}},
		{"type without editor", syndication.ItemReference{RemotePostID: 1, PostType: "attachment"}},
		{"zero id", syndication.ItemReference{PostType: "post"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.conn.RemoteGet(context.Background(), tt.ref)
			require.Error(t, err)
			assert.True(t, syndication.IsNotFound(err))
			assert.Equal(t, 0, h.client.Calls())
		})
	}
}

func TestRemoteGet(t *testing.T) {
	remote := newFakeRemote(t)
	remote.addItem(5, map[string]interface{}{
		"type":         "page",
		"title":        map[string]string{"raw": "Raw title", "rendered": "Rendered title"},
		"content":      map[string]string{"rendered": "<p>Body</p>"},
		"status":       "publish",
		"author":       3,
		"date_gmt":     "2024-03-01T10:00:00",
		"modified_gmt": "2024-03-02T11:30:00",
		"_links": map[string]interface{}{
			"self": []map[string]string{{"href": "https://remote.example.com/pages/5"}},
		},
	})
	h := newHarness(t, remote.URL())
	ctx := context.Background()

	content, err := h.conn.RemoteGet(ctx, syndication.ItemReference{RemotePostID: 5, PostType: "post"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), content.ID)
	assert.Equal(t, "page", content.Type)
	assert.Equal(t, "Raw title", content.Title)
	assert.Equal(t, "<p>Body</p>", content.Body)
	assert.Equal(t, "3", content.Author)
	assert.Equal(t, "https://remote.example.com/pages/5", content.Link)
	assert.Equal(t, 2024, content.Date.Year())
	assert.Equal(t, 30, content.Modified.Minute())

	_, err = h.conn.RemoteGet(ctx, syndication.ItemReference{RemotePostID: 6, PostType: "post"})
	require.Error(t, err)
	assert.True(t, syndication.IsNotFound(err))
}

func TestCheckConnections(t *testing.T) {
	tests := []struct {
		name          string
		marker        string
		link          string
		status        int
		reachable     bool
		noDistributor bool
		unauthorized  bool
	}{
		{name: "plain remote", link: "null", reachable: true, noDistributor: true},
		{name: "marker", marker: "true", reachable: true},
		{name: "marker yes", marker: "yes", reachable: true},
		{name: "link relation", link: `<https://remote.example.com/api>; rel="https://distributor.io/api"`, reachable: true},
		{name: "unauthorized", marker: "true", status: http.StatusUnauthorized, noDistributor: true, unauthorized: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote(t)
			remote.marker = tt.marker
			remote.link = tt.link
			remote.rejectStatus = tt.status
			h := newHarness(t, remote.URL())

			health := h.conn.CheckConnections(context.Background())
			assert.Equal(t, tt.reachable, health.Reachable)
			assert.Contains(t, health.Errors, syndication.HealthNoDistributor)
			assert.Equal(t, tt.noDistributor, health.Has(syndication.HealthNoDistributor))
			assert.Equal(t, tt.unauthorized, health.Has(syndication.HealthUnauthorized))
			assert.False(t, health.CheckedAt.IsZero())
		})
	}
}

func TestCheckConnectionsRoutesValue(t *testing.T) {
	tests := []struct {
		name    string
		index   map[string]interface{}
		missing bool
	}{
		{name: "string routes", index: map[string]interface{}{"routes": "my routes"}},
		{name: "list routes", index: map[string]interface{}{"routes": []string{"/posts"}}},
		{name: "no routes", index: map[string]interface{}{"name": "remote"}, missing: true},
		{name: "null routes", index: map[string]interface{}{"routes": nil}, missing: true},
		{name: "empty string routes", index: map[string]interface{}{"routes": ""}, missing: true},
		{name: "empty object routes", index: map[string]interface{}{"routes": map[string]interface{}{}}, missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote(t)
			remote.index = tt.index
			h := newHarness(t, remote.URL())

			health := h.conn.CheckConnections(context.Background())
			assert.True(t, health.Reachable)
			assert.Equal(t, tt.missing, health.Has(syndication.HealthNoExternalConnection))
		})
	}
}

func TestCheckConnectionsUnreachable(t *testing.T) {
	remote := newFakeRemote(t)
	h := newHarness(t, remote.URL())
	remote.server.Close()

	health := h.conn.CheckConnections(context.Background())
	assert.False(t, health.Reachable)
	assert.True(t, health.Has(syndication.HealthNoDistributor))
	assert.True(t, health.Has(syndication.HealthNoExternalConnection))

	assert.Equal(t, syndication.KindNetwork, syndication.KindOf(h.conn.RequireProtocol(context.Background())))
}

func TestRequireProtocol(t *testing.T) {
	remote := newFakeRemote(t)
	h := newHarness(t, remote.URL())

	err := h.conn.RequireProtocol(context.Background())
	assert.Equal(t, syndication.KindProtocolUnsupported, syndication.KindOf(err))

	remote.mu.Lock()
	remote.marker = "1"
	remote.mu.Unlock()
	assert.NoError(t, h.conn.RequireProtocol(context.Background()))
}

func TestRoutesFromAPIIndex(t *testing.T) {
	remote := newFakeRemote(t)
	remote.collection = "/custom/posts"
	h := newHarness(t, remote.URL())
	h.repo.Put(localPost(1))
	ctx := context.Background()

	health := h.conn.CheckConnections(ctx)
	require.True(t, health.Reachable)

	result, err := h.conn.Push(ctx, 1, syndication.PushOptions{})
	require.NoError(t, err)
	assert.Equal(t, remote.URL()+"/custom/posts/101", result.RemoteURL)
}

func TestRoutesFromTypesIndex(t *testing.T) {
	remote := newFakeRemote(t)
	remote.collection = "/v2/articles"
	remote.types = map[string]string{
		"post": remote.URL() + "/v2/articles",
		"page": remote.URL() + "/v2/pages",
	}
	remote.addItem(5, map[string]interface{}{"title": "Article"})
	h := newHarness(t, remote.URL())
	ctx := context.Background()

	content, err := h.conn.RemoteGet(ctx, syndication.ItemReference{RemotePostID: 5, PostType: "post"})
	require.NoError(t, err)
	assert.Equal(t, "Article", content.Title)

	href, ok := h.conn.routes.Get(typeKeyPrefix + "page")
	require.True(t, ok)
	assert.Equal(t, remote.URL()+"/v2/pages", href)

	h.client.Reset()
	_, err = h.conn.RemoteGet(ctx, syndication.ItemReference{RemotePostID: 5, PostType: "post"})
	require.NoError(t, err)
	assert.Equal(t, 1, h.client.Calls(), "cached route skips the types index")
}

func TestRoutesFallBackToRestBase(t *testing.T) {
	remote := newFakeRemote(t)
	remote.collection = "/pages"
	remote.addItem(3, map[string]interface{}{"title": "About"})
	h := newHarness(t, remote.URL())

	content, err := h.conn.RemoteGet(context.Background(), syndication.ItemReference{RemotePostID: 3, PostType: "page"})
	require.NoError(t, err)
	assert.Equal(t, "About", content.Title)
	assert.Equal(t, "page", content.Type)
}

func TestPushAgainstTypesIndexResponse(t *testing.T) {
	var marker string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if marker != "" {
			w.Header().Set(syndication.HeaderMarker, marker)
		}
		fmt.Fprintf(w, `{"id":123,"foo":{"_links":{"wp:items":[{"href":"http://%s/foo"}]}}}`, r.Host)
	}))
	defer server.Close()

	h := newHarness(t, server.URL)
	item := localPost(1)
	item.Type = "foo"
	h.repo.Put(item)
	ctx := context.Background()

	result, err := h.conn.Push(ctx, 1, syndication.PushOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(123), result.RemotePostID)
	assert.False(t, result.Linked)
	assert.Equal(t, 0, h.repo.SubscriptionCount())

	mu.Lock()
	marker = "true"
	mu.Unlock()

	result, err = h.conn.Push(ctx, 1, syndication.PushOptions{})
	require.NoError(t, err)
	assert.True(t, result.Linked)
	assert.Equal(t, 1, h.repo.SubscriptionCount())

	result, err = h.conn.Push(ctx, 1, syndication.PushOptions{})
	require.NoError(t, err)
	assert.True(t, result.Linked)
	assert.Equal(t, 1, h.repo.SubscriptionCount())
}

func TestClassifyTruncatesPlainBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "short", body: "  upstream down  ", want: "upstream down"},
		{name: "ascii", body: strings.Repeat("a", 250), want: strings.Repeat("a", 200)},
		{name: "rune on boundary", body: strings.Repeat("a", 199) + "é" + "tail", want: strings.Repeat("a", 199)},
		{name: "multibyte", body: strings.Repeat("日", 100), want: strings.Repeat("日", 66)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("push", &syndication.Response{StatusCode: http.StatusBadGateway, Body: []byte(tt.body)})
			assert.Equal(t, tt.want, err.Message)
			assert.True(t, utf8.ValidString(err.Message))
		})
	}
}
