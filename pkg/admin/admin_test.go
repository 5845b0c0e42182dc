package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapadmin/internal/notifier"
	"github.com/leapstack-labs/leapadmin/internal/testutil"
	"github.com/leapstack-labs/leapadmin/pkg/component"
	"github.com/leapstack-labs/leapadmin/pkg/schema"
	"github.com/leapstack-labs/leapadmin/pkg/store"
)

type user struct {
	ID       int64  `db:"id,pk"`
	Username string `db:"username,size=50,unique"`
	Email    string `db:"email,size=100" validate:"email"`
	IsActive bool   `db:"is_active" default:"true"`
}

func (user) TableName() string { return "users" }

type keyless struct {
	Name string `db:"name"`
}

const testSecret = "test-secret-key-32-bytes-long!!"

type testAdmin struct {
	*Admin
	db      *store.DB
	router  chi.Router
	metrics *Metrics
}

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), store.Config{Driver: "sqlite", DSN: ":memory:"}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.CreateTable(context.Background(), schema.MustInspect(user{})))
	return db
}

func newTestAdmin(t *testing.T, views ...View) *testAdmin {
	t.Helper()
	db := newTestDB(t)
	r := chi.NewRouter()

	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	a, err := New(r, db, Config{
		Title:    "Test Admin",
		Logger:   testutil.NewTestLogger(t),
		Sessions: sessions.NewCookieStore([]byte(testSecret)),
		Metrics:  m,
	})
	require.NoError(t, err)

	if len(views) == 0 {
		views = []View{&ModelView{Model: user{}}}
	}
	for _, v := range views {
		require.NoError(t, a.AddView(v))
	}
	require.NoError(t, a.Mount())
	return &testAdmin{Admin: a, db: db, router: r, metrics: m}
}

func (ta *testAdmin) insertUser(t *testing.T, username string) int64 {
	t.Helper()
	pk, err := ta.db.Insert(context.Background(), schema.MustInspect(user{}), schema.Record{
		"username":  username,
		"email":     username + "@example.com",
		"is_active": true,
	})
	require.NoError(t, err)
	return pk
}

func (ta *testAdmin) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(b.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	return rec
}

// decodeTree returns the top-level components of a JSON response.
func decodeTree(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var tree []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree), rec.Body.String())
	return tree
}

// findAll collects every component of the given type, depth first.
func findAll(nodes []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, n := range nodes {
		if n["type"] == typ {
			out = append(out, n)
		}
		for _, key := range []string{"components", "footer"} {
			children, _ := n[key].([]any)
			var sub []map[string]any
			for _, c := range children {
				if m, ok := c.(map[string]any); ok {
					sub = append(sub, m)
				}
			}
			out = append(out, findAll(sub, typ)...)
		}
	}
	return out
}

func findOne(t *testing.T, nodes []map[string]any, typ string) map[string]any {
	t.Helper()
	found := findAll(nodes, typ)
	require.NotEmpty(t, found, "no %s component", typ)
	return found[0]
}

func routeNames(a *Admin) []string {
	var names []string
	for _, r := range a.Routes() {
		names = append(names, r.Name)
	}
	return names
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(chi.NewRouter(), nil, Config{})
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(chi.NewRouter(), newTestDB(t), Config{BaseURL: "/backoffice/"})
	require.NoError(t, err)

	assert.Equal(t, "Admin", a.Title())
	assert.Equal(t, "/backoffice", a.BaseURL())
	assert.Equal(t, "admin", a.RouteName())
	assert.NotNil(t, a.Notifier())
	assert.False(t, a.Mounted())
}

func TestAddView(t *testing.T) {
	t.Run("rejects model without primary key", func(t *testing.T) {
		a, err := New(chi.NewRouter(), newTestDB(t), Config{})
		require.NoError(t, err)
		assert.ErrorIs(t, a.AddView(&ModelView{Model: keyless{}}), schema.ErrNoPrimaryKey)
	})

	t.Run("rejects duplicate slug", func(t *testing.T) {
		a, err := New(chi.NewRouter(), newTestDB(t), Config{})
		require.NoError(t, err)
		require.NoError(t, a.AddView(&ModelView{Model: user{}}))
		assert.ErrorIs(t, a.AddView(&ModelView{Model: &user{}, Title: "Accounts"}), ErrDuplicateView)
	})

	t.Run("rejects after mount", func(t *testing.T) {
		ta := newTestAdmin(t)
		assert.ErrorIs(t, ta.AddView(&BaseView{Title: "Late"}), ErrMounted)
	})
}

func TestMount_Idempotent(t *testing.T) {
	ta := newTestAdmin(t)
	before := routeNames(ta.Admin)

	require.NoError(t, ta.Mount())

	assert.Equal(t, before, routeNames(ta.Admin))
	assert.Len(t, ta.Views(), 2)
	assert.Equal(t, "Dashboard", ta.Views()[0].Name())
}

func TestRoutes_Order(t *testing.T) {
	ta := newTestAdmin(t,
		&ModelView{Model: user{}},
		&BaseView{Title: "Custom"},
	)

	assert.Equal(t, []string{
		"index", "index_api",
		"Users_list", "Users_list_api", "Users_changes_api",
		"Users_create", "Users_create_api",
		"Users_detail", "Users_detail_api",
		"Users_edit", "Users_edit_api",
		"Users_delete_api",
		"Custom_html", "Custom_api",
		"catch_all",
	}, routeNames(ta.Admin))

	for _, r := range ta.Routes() {
		if r.Name == "Users_edit_api" {
			assert.Equal(t, "/api/users/{pk:int}/edit", r.Pattern)
			assert.Equal(t, []string{"GET", "POST"}, r.Methods)
		}
	}
}

func TestIndex(t *testing.T) {
	ta := newTestAdmin(t)

	t.Run("html shell", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/admin/", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "<title>Test Admin</title>")
		assert.Contains(t, rec.Body.String(), `<meta name="fastui:APIRootUrl" content="/admin/api">`)
	})

	t.Run("api", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/admin/api/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		tree := decodeTree(t, rec)

		require.Len(t, tree, 4)
		assert.Equal(t, "PageTitle", tree[0]["type"])
		assert.Equal(t, "Navbar", tree[1]["type"])
		assert.Equal(t, "Page", tree[2]["type"])
		assert.Equal(t, "Footer", tree[3]["type"])
		assert.Equal(t, "Powered by LeapAdmin", tree[3]["extraText"])

		heading := findOne(t, tree, "Heading")
		assert.Equal(t, "Welcome to Test Admin", heading["text"])
		assert.Contains(t, rec.Body.String(), "btn btn-outline-primary me-2 mb-2")
	})

	t.Run("head", func(t *testing.T) {
		rec := ta.do(t, http.MethodHead, "/admin/", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestNavbar_Active(t *testing.T) {
	ta := newTestAdmin(t)
	tree := decodeTree(t, ta.do(t, http.MethodGet, "/admin/api/", nil))

	links, _ := tree[1]["startLinks"].([]any)
	require.Len(t, links, 2)
	assert.Equal(t, "/admin/", links[0].(map[string]any)["active"])
	assert.Equal(t, "startswith:/admin/users/", links[1].(map[string]any)["active"])
}

func TestCatchAll(t *testing.T) {
	ta := newTestAdmin(t)

	rec := ta.do(t, http.MethodGet, "/admin/some/client/route", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Test Admin</title>")

	rec = ta.do(t, http.MethodGet, "/admin/users/create", nil)
	assert.Contains(t, rec.Body.String(), "<title>Create Users - Test Admin</title>")
}

func TestList(t *testing.T) {
	ta := newTestAdmin(t)
	ta.insertUser(t, "alice")

	rec := ta.do(t, http.MethodGet, "/admin/api/users/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decodeTree(t, rec)

	table := findOne(t, tree, "Table")
	data := table["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "alice", data[0].(map[string]any)["username"])

	columns := table["columns"].([]any)
	pkCol := columns[0].(map[string]any)
	assert.Equal(t, "id", pkCol["field"])
	assert.Equal(t, map[string]any{"type": "go-to", "url": "/admin/users/{id}"}, pkCol["onClick"])

	assert.Contains(t, rec.Body.String(), "+ Create New Users")
}

func TestList_Pagination(t *testing.T) {
	ta := newTestAdmin(t, &ModelView{Model: user{}, PageSize: 10})
	for i := range 25 {
		ta.insertUser(t, "user"+string(rune('a'+i)))
	}

	tests := []struct {
		query string
		page  float64
		rows  int
	}{
		{"", 1, 10},
		{"?page=3", 3, 5},
		{"?page=abc", 1, 10},
		{"?page=0", 1, 10},
		{"?page=9", 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tree := decodeTree(t, ta.do(t, http.MethodGet, "/admin/api/users/"+tt.query, nil))
			pagination := findOne(t, tree, "Pagination")
			assert.Equal(t, tt.page, pagination["page"])
			assert.Equal(t, float64(25), pagination["total"])
			assert.Len(t, findOne(t, tree, "Table")["data"], tt.rows)
		})
	}
}

func TestDetail(t *testing.T) {
	ta := newTestAdmin(t)
	pk := ta.insertUser(t, "alice")

	t.Run("found", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/admin/api/users/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		tree := decodeTree(t, rec)

		assert.Equal(t, "Users #1", findOne(t, tree, "Heading")["text"])
		details := findOne(t, tree, "Details")
		assert.Equal(t, "alice", details["data"].(map[string]any)["username"])

		form := findOne(t, tree, "ModelForm")
		assert.Equal(t, "/users/1/delete", form["submitUrl"])
		assert.Equal(t, "Delete", findOne(t, []map[string]any{form}, "Button")["text"])
	})

	t.Run("missing", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/admin/api/users/999", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail":"Not found"}`, rec.Body.String())
	})

	assert.Equal(t, int64(1), pk)
}

func TestCreate(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		ta := newTestAdmin(t)
		rec := ta.do(t, http.MethodGet, "/admin/api/users/create", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		tree := decodeTree(t, rec)

		form := findOne(t, tree, "ModelForm")
		assert.Equal(t, "/users/create", form["submitUrl"])
		fields := form["formFields"].([]any)
		require.Len(t, fields, 3)
		assert.Equal(t, "username", fields[0].(map[string]any)["name"])
	})

	t.Run("json", func(t *testing.T) {
		ta := newTestAdmin(t)
		rec := ta.do(t, http.MethodPost, "/admin/api/users/create",
			map[string]any{"username": "bob", "email": "bob@example.com", "is_active": true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.JSONEq(t, `[{"type":"FireEvent","event":{"type":"go-to","url":"/admin/users/1"}}]`, rec.Body.String())

		got, err := ta.db.Get(context.Background(), schema.MustInspect(user{}), 1)
		require.NoError(t, err)
		assert.Equal(t, "bob", got["username"])
		assert.Equal(t, float64(1), promtest.ToFloat64(ta.metrics.operations.WithLabelValues("Users", "create", outcomeOK)))
	})

	t.Run("form post without checkbox", func(t *testing.T) {
		ta := newTestAdmin(t)
		rec := ta.do(t, http.MethodPost, "/admin/api/users/create",
			url.Values{"username": {"carol"}, "email": {"carol@example.com"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got, err := ta.db.Get(context.Background(), schema.MustInspect(user{}), 1)
		require.NoError(t, err)
		assert.Equal(t, false, got["is_active"])
	})

	t.Run("invalid input", func(t *testing.T) {
		ta := newTestAdmin(t)
		rec := ta.do(t, http.MethodPost, "/admin/api/users/create", map[string]any{"username": "bob"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), msgInvalidInput)
		assert.Equal(t, float64(1), promtest.ToFloat64(ta.metrics.operations.WithLabelValues("Users", "create", outcomeInvalid)))
	})

	t.Run("rule failure", func(t *testing.T) {
		ta := newTestAdmin(t)
		rec := ta.do(t, http.MethodPost, "/admin/api/users/create", map[string]any{"username": "bob", "email": "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		ta := newTestAdmin(t)
		ta.insertUser(t, "alice")
		rec := ta.do(t, http.MethodPost, "/admin/api/users/create",
			map[string]any{"username": "alice", "email": "dupe@example.com", "is_active": true})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Failed to create Users. Check server logs for details.")
	})
}

func TestEdit(t *testing.T) {
	ta := newTestAdmin(t)
	ta.insertUser(t, "alice")

	t.Run("form has current values", func(t *testing.T) {
		tree := decodeTree(t, ta.do(t, http.MethodGet, "/admin/api/users/1/edit", nil))
		assert.Equal(t, "Edit Users #1", findOne(t, tree, "Heading")["text"])
		form := findOne(t, tree, "ModelForm")
		assert.Equal(t, "/users/1/edit", form["submitUrl"])
		username := form["formFields"].([]any)[0].(map[string]any)
		assert.Equal(t, "username", username["name"])
		assert.Equal(t, "alice", username["initial"])
		assert.Equal(t, true, username["required"])
	})

	t.Run("update", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/admin/api/users/1/edit",
			map[string]any{"username": "alice_updated", "email": "alice@example.com", "is_active": true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "/admin/users/1")

		got, err := ta.db.Get(context.Background(), schema.MustInspect(user{}), 1)
		require.NoError(t, err)
		assert.Equal(t, "alice_updated", got["username"])
	})

	t.Run("missing", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/admin/api/users/999/edit",
			map[string]any{"username": "nope", "email": "no@example.com", "is_active": false})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = ta.do(t, http.MethodGet, "/admin/api/users/999/edit", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDelete(t *testing.T) {
	ta := newTestAdmin(t)
	ta.insertUser(t, "alice")

	rec := ta.do(t, http.MethodPost, "/admin/api/users/1/delete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"type":"FireEvent","event":{"type":"go-to","url":"/admin/users/"}}]`, rec.Body.String())

	_, err := ta.db.Get(context.Background(), schema.MustInspect(user{}), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec = ta.do(t, http.MethodPost, "/admin/api/users/1/delete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadOnlyView(t *testing.T) {
	ta := newTestAdmin(t, &ModelView{
		Model:       user{},
		Title:       "ReadOnlyUsers",
		ColumnList:  []string{"id", "username"},
		Permissions: ReadOnly(),
	})
	ta.insertUser(t, "alice")

	names := routeNames(ta.Admin)
	assert.NotContains(t, names, "ReadOnlyUsers_create_api")
	assert.NotContains(t, names, "ReadOnlyUsers_edit_api")
	assert.NotContains(t, names, "ReadOnlyUsers_delete_api")
	assert.Contains(t, names, "ReadOnlyUsers_detail_api")

	t.Run("list hides create link", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/admin/api/users/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "Create New")
		columns := findOne(t, decodeTree(t, rec), "Table")["columns"].([]any)
		assert.Len(t, columns, 2)
	})

	t.Run("write endpoints are absent", func(t *testing.T) {
		rec := ta.do(t, http.MethodPost, "/admin/api/users/create", map[string]any{"username": "x"})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = ta.do(t, http.MethodPost, "/admin/api/users/1/delete", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("detail has no actions", func(t *testing.T) {
		rec := ta.do(t, http.MethodGet, "/admin/api/users/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "ModelForm")
		assert.NotContains(t, rec.Body.String(), `"Edit"`)
	})
}

func TestBaseView(t *testing.T) {
	ta := newTestAdmin(t, &BaseView{
		Title: "Custom",
		Content: func(*http.Request) ([]component.Component, error) {
			return []component.Component{component.Paragraph{Text: "hello from custom"}}, nil
		},
	})

	rec := ta.do(t, http.MethodGet, "/admin/api/custom/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello from custom", findOne(t, decodeTree(t, rec), "Paragraph")["text"])

	rec = ta.do(t, http.MethodGet, "/admin/custom/", nil)
	assert.Contains(t, rec.Body.String(), "<title>Custom - Test Admin</title>")
}

func TestFlashMessages(t *testing.T) {
	ta := newTestAdmin(t)

	rec := ta.do(t, http.MethodPost, "/admin/api/users/create",
		map[string]any{"username": "bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = ta.do(t, http.MethodGet, "/admin/api/users/1", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Created Users #1")
}

func TestChanges_StreamsMatchingTable(t *testing.T) {
	ta := newTestAdmin(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/admin/api/users/changes", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ta.router.ServeHTTP(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return ta.Notifier().Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	ta.Notifier().Broadcast(notifier.Change{Table: "posts", View: "Posts", Operation: notifier.Created, PK: 7})
	ta.Notifier().Broadcast(notifier.Change{Table: "users", View: "Users", Operation: notifier.Deleted, PK: 3})

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Contains(t, body, "lastChange")
	assert.Contains(t, body, `"operation":"deleted"`)
	assert.NotContains(t, body, `"table":"posts"`)
	assert.Equal(t, 0, ta.Notifier().Subscribers())
}

func TestWritesBroadcastChanges(t *testing.T) {
	ta := newTestAdmin(t)
	ch := ta.Notifier().Subscribe()
	defer ta.Notifier().Unsubscribe(ch)

	rec := ta.do(t, http.MethodPost, "/admin/api/users/create",
		map[string]any{"username": "bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case c := <-ch:
		assert.Equal(t, notifier.Created, c.Operation)
		assert.Equal(t, "users", c.Table)
		assert.Equal(t, int64(1), c.PK)
	case <-time.After(time.Second):
		t.Fatal("no change broadcast")
	}
}

type auditLog struct {
	ID     int64  `db:"id,pk"`
	Action string `db:"action"`
}

func TestModelView_DefaultName(t *testing.T) {
	ta := newTestAdmin(t, &ModelView{Model: auditLog{}}, &ModelView{Model: user{}, Title: "People"})

	names := routeNames(ta.Admin)
	assert.Contains(t, names, "Audit_Log_list")
	assert.Contains(t, names, "Audit_Log_edit_api")
	assert.Contains(t, names, "People_list")
	assert.NotContains(t, names, "Users_list")
}
