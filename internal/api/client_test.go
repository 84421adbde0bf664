package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/WillyV3/moodbi/internal/moodboard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// fakeBackend is an in-memory stand-in for the moodboard service.
type fakeBackend struct {
	mu       sync.Mutex
	boards   map[string]moodboard.Board
	comments map[string][]moodboard.Comment
	uploads  map[string][]byte
	lastBody []byte
	lastCT   string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		boards:   map[string]moodboard.Board{},
		comments: map[string][]moodboard.Comment{},
		uploads:  map[string][]byte{},
	}
}

func (f *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/moodboards", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			out := make([]moodboard.Board, 0, len(f.boards))
			for _, b := range f.boards {
				out = append(out, b)
			}
			writeJSON(w, http.StatusOK, out)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			b := f.store("new-1", r)
			writeJSON(w, http.StatusCreated, b)
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			b, ok := f.boards[chi.URLParam(r, "id")]
			if !ok {
				http.Error(w, "moodboard not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, b)
		})
		r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.store(chi.URLParam(r, "id"), r)
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			delete(f.boards, chi.URLParam(r, "id"))
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, f.comments[chi.URLParam(r, "id")])
		})
		r.Post("/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
			var in moodboard.CommentInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			id := chi.URLParam(r, "id")
			c := moodboard.Comment{ID: "c1", MoodboardID: id, Content: in.Content, Author: in.Author}
			f.mu.Lock()
			f.comments[id] = append(f.comments[id], c)
			f.mu.Unlock()
			writeJSON(w, http.StatusCreated, c)
		})
		r.Delete("/{id}/comments/{cid}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Get("/{id}/attachments", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []moodboard.Attachment{{ID: "a1", FileName: "x.png", FileURL: "/files/x.png", FileSize: 2048}})
		})
		r.Post("/{id}/attachments", func(w http.ResponseWriter, r *http.Request) {
			file, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			data, _ := io.ReadAll(file)
			f.mu.Lock()
			f.uploads[hdr.Filename] = data
			f.mu.Unlock()
			writeJSON(w, http.StatusCreated, moodboard.Attachment{ID: "a2", FileName: hdr.Filename, FileSize: int64(len(data))})
		})
		r.Delete("/{id}/attachments/{aid}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

func (f *fakeBackend) store(id string, r *http.Request) moodboard.Board {
	data, _ := io.ReadAll(r.Body)
	var p moodboard.BoardPayload
	_ = json.Unmarshal(data, &p)

	b := moodboard.Board{ID: id, Title: p.Title, Description: &p.Description, DueDate: p.DueDate}
	for i, it := range p.Items {
		idx := it.OrderIndex
		b.Items = append(b.Items, moodboard.Item{ID: id + "-item-" + string(rune('a'+i)), Text: it.Text, Color: it.Color, OrderIndex: &idx})
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBody = data
	f.lastCT = r.Header.Get("Content-Type")
	f.boards[id] = b
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = New(" http://example.com/api/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api", c.BaseURL())

	_, err = New("ftp://example.com")
	assert.Error(t, err)
	_, err = New("http://")
	assert.Error(t, err)
}

func TestBoardLifecycle(t *testing.T) {
	fb := newFakeBackend()
	c := newTestClient(t, fb.router())
	ctx := context.Background()

	created, err := c.CreateBoard(ctx, moodboard.BoardPayload{
		Title: "Autumn",
		Items: []moodboard.ItemPayload{{Text: "leaves", Color: moodboard.StringPtr("#aa5500"), OrderIndex: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", created.ID)
	assert.Equal(t, "application/json", fb.lastCT)
	assert.JSONEq(t, `{"title":"Autumn","description":"","dueDate":null,"items":[{"text":"leaves","color":"#aa5500","orderIndex":0}]}`, string(fb.lastBody))

	boards, err := c.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)

	replaced, err := c.ReplaceBoard(ctx, "new-1", moodboard.BoardPayload{
		Title:   "Autumn v2",
		DueDate: moodboard.StringPtr("2025-11-01"),
		Items: []moodboard.ItemPayload{
			{Text: "rain", OrderIndex: 0},
			{Text: "leaves", OrderIndex: 1},
		},
	})
	require.NoError(t, err)
	assert.Zero(t, replaced, "204 decodes as no content")

	got, err := c.GetBoard(ctx, "new-1")
	require.NoError(t, err)
	assert.Equal(t, "Autumn v2", got.Title)
	assert.Equal(t, "2025-11-01", got.DueDateValue())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "rain", got.Items[0].Text)

	require.NoError(t, c.DeleteBoard(ctx, "new-1"))
	_, err = c.GetBoard(ctx, "new-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "moodboard not found", err.Error(), "body is surfaced verbatim")
}

func TestValidationHappensBeforeRequest(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	ctx := context.Background()

	_, err := c.CreateBoard(ctx, moodboard.BoardPayload{Title: "  "})
	assert.True(t, moodboard.IsValidationError(err))
	_, err = c.ReplaceBoard(ctx, "b", moodboard.BoardPayload{})
	assert.True(t, moodboard.IsValidationError(err))
	_, err = c.AddComment(ctx, "b", moodboard.CommentInput{Content: " "})
	assert.True(t, moodboard.IsValidationError(err))
	_, err = c.UploadFile(ctx, "b", "")
	assert.True(t, moodboard.IsValidationError(err))
	_, err = c.UploadFile(ctx, "b", t.TempDir())
	assert.True(t, moodboard.IsValidationError(err))
	assert.Zero(t, calls)
}

func TestStatusErrorFallsBackToStatusText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, err := c.ListBoards(context.Background())
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "Bad Gateway", err.Error())
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL + "/api"
	srv.Close()

	c, err := New(addr)
	require.NoError(t, err)
	_, err = c.ListBoards(context.Background())
	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), addr)
	c.http.CloseIdleConnections()
}

func TestComments(t *testing.T) {
	fb := newFakeBackend()
	c := newTestClient(t, fb.router())
	ctx := context.Background()

	added, err := c.AddComment(ctx, "b1", moodboard.CommentInput{Content: "  see www.x.com ", Author: ""})
	require.NoError(t, err)
	assert.Equal(t, "see www.x.com", added.Content)
	assert.Equal(t, moodboard.AnonymousAuthor, added.Author)

	list, err := c.ListComments(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.DeleteComment(ctx, "b1", "c1"))
}

func TestAttachments(t *testing.T) {
	fb := newFakeBackend()
	c := newTestClient(t, fb.router())
	ctx := context.Background()

	att, err := c.Upload(ctx, "b1", "palette.txt", strings.NewReader("red green blue"))
	require.NoError(t, err)
	assert.Equal(t, "palette.txt", att.FileName)
	assert.Equal(t, int64(14), att.FileSize)
	assert.Equal(t, "red green blue", string(fb.uploads["palette.txt"]))

	list, err := c.ListAttachments(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, strings.TrimSuffix(c.BaseURL(), "/api")+"/files/x.png", c.ResolveURL(list[0].FileURL))

	require.NoError(t, c.DeleteAttachment(ctx, "b1", "a1"))
}

func TestResolveURL(t *testing.T) {
	c, err := New("http://host:8080/api")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", c.ResolveURL("https://cdn.example.com/a.png"))
	assert.Equal(t, "http://host:8080/uploads/a.png", c.ResolveURL("/uploads/a.png"))
	assert.Equal(t, "http://host:8080/api/uploads/a.png", c.ResolveURL("uploads/a.png"))
}

func TestPathEscaping(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	require.NoError(t, c.DeleteComment(context.Background(), "a/b", "c d"))
	assert.Equal(t, "/api/moodboards/a%2Fb/comments/c%20d", gotPath)
}
