package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"github.com/WillyV3/moodbi/internal/config"
	"github.com/WillyV3/moodbi/internal/moodboard"
	"github.com/WillyV3/moodbi/internal/tui"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	homedir.DisableCache = true
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// backend is an in-memory moodboard service that assigns fresh item ids on
// every write, like the real one.
type backend struct {
	mu          sync.Mutex
	seq         int
	order       []string
	boards      map[string]moodboard.Board
	comments    map[string][]moodboard.Comment
	attachments map[string][]moodboard.Attachment
	uploads     map[string][]byte
	puts        int
}

func newBackend() *backend {
	return &backend{
		boards:      map[string]moodboard.Board{},
		comments:    map[string][]moodboard.Comment{},
		attachments: map[string][]moodboard.Attachment{},
		uploads:     map[string][]byte{},
	}
}

func (f *backend) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *backend) write(id string, p moodboard.BoardPayload) moodboard.Board {
	b := moodboard.Board{
		ID:          id,
		Title:       p.Title,
		Description: moodboard.StringPtr(p.Description),
		DueDate:     p.DueDate,
	}
	for _, it := range p.Items {
		idx := it.OrderIndex
		b.Items = append(b.Items, moodboard.Item{
			ID:         f.nextID("it"),
			Text:       it.Text,
			Color:      it.Color,
			OrderIndex: &idx,
		})
	}
	if _, ok := f.boards[id]; !ok {
		f.order = append(f.order, id)
	}
	f.boards[id] = b
	return b
}

// add stores a board directly, bypassing HTTP.
func (f *backend) add(p moodboard.BoardPayload) moodboard.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(f.nextID("board"), p)
}

func (f *backend) board(id string) moodboard.Board {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boards[id]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *backend) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/moodboards", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			out := make([]moodboard.Board, 0, len(f.order))
			for _, id := range f.order {
				if b, ok := f.boards[id]; ok {
					out = append(out, b)
				}
			}
			writeJSON(w, http.StatusOK, out)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var p moodboard.BoardPayload
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			b := f.write(f.nextID("board"), p)
			f.mu.Unlock()
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
			var p moodboard.BoardPayload
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			id := chi.URLParam(r, "id")
			if _, ok := f.boards[id]; !ok {
				http.Error(w, "moodboard not found", http.StatusNotFound)
				return
			}
			f.puts++
			writeJSON(w, http.StatusOK, f.write(id, p))
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
			f.mu.Lock()
			c := moodboard.Comment{
				ID:          f.nextID("c"),
				MoodboardID: id,
				Content:     in.Content,
				Author:      in.Author,
				CreatedAt:   "2025-03-09T12:00:00Z",
			}
			f.comments[id] = append(f.comments[id], c)
			f.mu.Unlock()
			writeJSON(w, http.StatusCreated, c)
		})
		r.Delete("/{id}/comments/{cid}", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			id, cid := chi.URLParam(r, "id"), chi.URLParam(r, "cid")
			kept := f.comments[id][:0]
			for _, c := range f.comments[id] {
				if c.ID != cid {
					kept = append(kept, c)
				}
			}
			f.comments[id] = kept
			w.WriteHeader(http.StatusNoContent)
		})
		r.Get("/{id}/attachments", func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, http.StatusOK, f.attachments[chi.URLParam(r, "id")])
		})
		r.Post("/{id}/attachments", func(w http.ResponseWriter, r *http.Request) {
			file, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer file.Close()
			data, _ := io.ReadAll(file)
			id := chi.URLParam(r, "id")
			f.mu.Lock()
			a := moodboard.Attachment{
				ID:          f.nextID("a"),
				MoodboardID: id,
				FileName:    hdr.Filename,
				FileURL:     "/files/" + hdr.Filename,
				FileSize:    int64(len(data)),
				ContentType: "text/plain",
			}
			f.attachments[id] = append(f.attachments[id], a)
			f.uploads[hdr.Filename] = data
			f.mu.Unlock()
			writeJSON(w, http.StatusCreated, a)
		})
		r.Delete("/{id}/attachments/{aid}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r
}

type harness struct {
	t      *testing.T
	be     *backend
	srv    *httptest.Server
	home   string
	opened []string
	tuiRun *tui.Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, be: newBackend(), home: t.TempDir()}
	t.Setenv("HOME", h.home)
	h.srv = httptest.NewServer(h.be.router())
	t.Cleanup(h.srv.Close)
	return h
}

// run executes one moodbi invocation with input as stdin.
func (h *harness) run(input string, args ...string) (string, error) {
	h.t.Helper()
	app := &App{
		v:   config.New(),
		in:  strings.NewReader(input),
		now: func() time.Time { return testNow },
		runTUI: func(svc tui.Service, opts tui.Options) error {
			h.tuiRun = &opts
			return nil
		},
		openFn: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
	}
	cmd := newRootCmd(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--api", h.srv.URL + "/api", "--log-file="}, args...))
	err := cmd.Execute()
	if app.client != nil {
		app.client.CloseIdleConnections()
	}
	return out.String(), err
}

func samplePayload() moodboard.BoardPayload {
	due := "2025-03-15"
	return moodboard.BoardPayload{
		Title:       "Spring",
		Description: "Calm **pastels**",
		DueDate:     &due,
		Items: []moodboard.ItemPayload{
			{Text: "sky", Color: moodboard.StringPtr("#87ceeb"), OrderIndex: 0},
			{Text: "grass", OrderIndex: 1},
			{Text: "see https://example.com/ref", OrderIndex: 2},
		},
	}
}

func itemTexts(b moodboard.Board) []string {
	var out []string
	for _, it := range b.OrderedItems() {
		out = append(out, it.Text)
	}
	return out
}

func TestRootRunsTUI(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "--author", "ana")
	require.NoError(t, err)
	require.NotNil(t, h.tuiRun)
	assert.Equal(t, "ana", h.tuiRun.Author)
	assert.Equal(t, h.srv.URL+"/api", h.tuiRun.BaseURL)
	assert.NotNil(t, h.tuiRun.Logger)
}

func TestListTableAndJSON(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Moodboards - 1")
	assert.Contains(t, out, "Spring")
	assert.Contains(t, out, "in 5 days")

	out, err = h.run("", "list", "-o", "json")
	require.NoError(t, err)
	var boards []moodboard.Board
	require.NoError(t, json.Unmarshal([]byte(out), &boards))
	require.Len(t, boards, 1)
	assert.Equal(t, b.ID, boards[0].ID)
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Moodboards - 0")
	assert.Contains(t, out, "none")
}

func TestListBadOutputFormat(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestListConnectionError(t *testing.T) {
	h := newHarness(t)
	h.srv.Close()

	_, err := h.run("", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), h.srv.URL)
}

func TestShow(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())
	h.be.comments[b.ID] = []moodboard.Comment{{ID: "c9", Author: "ana", Content: "love it www.example.org", CreatedAt: "2025-03-09T12:00:00Z"}}

	out, err := h.run("", "show", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Spring")
	assert.Contains(t, out, "pastels")
	assert.Contains(t, out, "Items - 3")
	assert.Contains(t, out, "#87ceeb")
	assert.Contains(t, out, "Comments - 1")
	assert.Contains(t, out, "love it www.example.org")
	assert.Contains(t, out, "Attachments - 0")
}

func TestShowYAML(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("", "show", b.ID, "-o", "yaml")
	require.NoError(t, err)
	var d boardDetail
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, "Spring", d.Board.Title)
	assert.Empty(t, d.Comments)
	assert.Equal(t, []string{"sky", "grass", "see https://example.com/ref"}, itemTexts(d.Board))
}

func TestShowNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moodboard not found")
}

func TestCreate(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "create",
		"--title", " Cabin ",
		"--due", "2025-04-01",
		"--item", "walnut=#5d432c",
		"--item", "wool",
		"--item", "a=b=teal",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Created board Cabin")

	b := h.be.board("board1")
	assert.Equal(t, "Cabin", b.Title)
	assert.Equal(t, "2025-04-01", b.DueDateValue())
	items := b.OrderedItems()
	require.Len(t, items, 3)
	assert.Equal(t, "#5d432c", items[0].ColorValue())
	assert.Equal(t, "", items[1].ColorValue())
	assert.Equal(t, "a=b", items[2].Text)
	assert.Equal(t, "teal", items[2].ColorValue())
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "create", "--title", "  ")
	require.Error(t, err)
	assert.True(t, moodboard.IsValidationError(err))

	_, err = h.run("", "create", "--title", "x", "--due", "tomorrow")
	require.Error(t, err)
	assert.True(t, moodboard.IsValidationError(err))
	assert.Empty(t, h.be.boards)
}

func TestEditKeepsItems(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("", "edit", b.ID, "--title", "Summer", "--clear-due")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Updated board Summer")

	fresh := h.be.board(b.ID)
	assert.Equal(t, "Summer", fresh.Title)
	assert.Equal(t, "", fresh.DueDateValue())
	assert.Equal(t, "Calm **pastels**", fresh.DescriptionValue())
	assert.Equal(t, itemTexts(b), itemTexts(fresh))
}

func TestEditKeepsStoredColors(t *testing.T) {
	h := newHarness(t)
	p := samplePayload()
	p.Items[0].Color = moodboard.StringPtr("rgb(10 20 30)")
	p.Items[1].Color = moodboard.StringPtr("light blue")
	b := h.be.add(p)

	_, err := h.run("", "edit", b.ID, "--title", "Summer")
	require.NoError(t, err)

	var colors []string
	for _, it := range h.be.board(b.ID).OrderedItems() {
		colors = append(colors, it.ColorValue())
	}
	assert.Equal(t, []string{"rgb(10 20 30)", "light blue", ""}, colors)
}

func TestEditFlagErrors(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	_, err := h.run("", "edit", b.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")

	_, err = h.run("", "edit", b.ID, "--due", "2025-05-01", "--clear-due")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
	assert.Zero(t, h.be.puts)
}

func TestDeleteConfirmation(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("n\n", "delete", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, h.be.boards, 1)

	out, err = h.run("y\n", "delete", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted board Spring")
	assert.Empty(t, h.be.boards)
}

func TestDeleteYes(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	_, err := h.run("", "rm", b.ID, "--yes")
	require.NoError(t, err)
	assert.Empty(t, h.be.boards)
}

func TestItemsAdd(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("", "items", "add", b.ID, "golden", "hour", "-c", "#ffd700")
	require.NoError(t, err)
	assert.Contains(t, out, "golden hour")

	fresh := h.be.board(b.ID)
	assert.Equal(t, []string{"sky", "grass", "see https://example.com/ref", "golden hour"}, itemTexts(fresh))
	assert.Equal(t, 1, h.be.puts)
}

func TestItemsAddBadColor(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	_, err := h.run("", "items", "add", b.ID, "x", "-c", "not a color!")
	require.Error(t, err)
	assert.True(t, moodboard.IsValidationError(err))
	assert.Zero(t, h.be.puts)
}

func TestItemsMove(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())
	grass := b.OrderedItems()[1].ID

	_, err := h.run("", "items", "move", b.ID, grass, "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"grass", "sky", "see https://example.com/ref"}, itemTexts(h.be.board(b.ID)))
}

func TestItemsMovePastEndIsNoop(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())
	first := b.OrderedItems()[0].ID

	out, err := h.run("", "items", "move", b.ID, first, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing changed.")
	assert.Zero(t, h.be.puts)

	_, err = h.run("", "items", "move", b.ID, first, "sideways")
	require.Error(t, err)
}

func TestItemsRm(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	_, err := h.run("", "items", "rm", b.ID, b.OrderedItems()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"grass", "see https://example.com/ref"}, itemTexts(h.be.board(b.ID)))

	_, err = h.run("", "items", "rm", b.ID, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item nope not found")
}

func TestItemsSet(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())
	sky := b.OrderedItems()[0].ID

	_, err := h.run("", "items", "set", b.ID, sky, "--text", "night sky", "--color", "")
	require.NoError(t, err)
	it := h.be.board(b.ID).OrderedItems()[0]
	assert.Equal(t, "night sky", it.Text)
	assert.Equal(t, "", it.ColorValue())

	_, err = h.run("", "items", "set", b.ID, sky)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}

func TestItemsListJSON(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("", "items", "list", b.ID, "-o", "json")
	require.NoError(t, err)
	var items []moodboard.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 3)
}

func TestCommentsAddUsesAuthor(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	out, err := h.run("", "comments", "add", b.ID, "nice", "palette")
	require.NoError(t, err)
	assert.Contains(t, out, "added by anonymous")

	out, err = h.run("", "--author", "ana", "comments", "add", b.ID, "more blue")
	require.NoError(t, err)
	assert.Contains(t, out, "added by ana")

	cs := h.be.comments[b.ID]
	require.Len(t, cs, 2)
	assert.Equal(t, "nice palette", cs[0].Content)
	assert.Equal(t, "ana", cs[1].Author)

	out, err = h.run("", "comments", "list", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Comments - 2")
	assert.Contains(t, out, "1 day ago")
}

func TestCommentsRm(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())
	h.be.comments[b.ID] = []moodboard.Comment{{ID: "c1", Content: "x", Author: "a"}}

	_, err := h.run("", "comments", "rm", b.ID, "c1", "-y")
	require.NoError(t, err)
	assert.Empty(t, h.be.comments[b.ID])
}

func TestAttachmentsUploadListOpen(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())
	path := filepath.Join(h.home, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	out, err := h.run("", "attachments", "upload", b.ID, "~/notes.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Uploaded notes.txt (5 B)")
	assert.Equal(t, []byte("hello"), h.be.uploads["notes.txt"])

	out, err = h.run("", "attachments", "list", b.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, h.srv.URL+"/files/notes.txt")

	aid := h.be.attachments[b.ID][0].ID
	out, err = h.run("", "attachments", "open", b.ID, aid, "--print")
	require.NoError(t, err)
	assert.Equal(t, h.srv.URL+"/files/notes.txt\n", out)
	assert.Empty(t, h.opened)

	_, err = h.run("", "attachments", "open", b.ID, aid)
	require.NoError(t, err)
	assert.Equal(t, []string{h.srv.URL + "/files/notes.txt"}, h.opened)

	_, err = h.run("", "attachments", "open", b.ID, "zzz")
	require.Error(t, err)
}

func TestAttachmentsUploadMissingFile(t *testing.T) {
	h := newHarness(t)
	b := h.be.add(samplePayload())

	_, err := h.run("", "attachments", "upload", b.ID, filepath.Join(h.home, "nope.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.png")
}

func TestSeed(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("✓ Created %d boards", len(sampleBoards)))
	assert.Len(t, h.be.boards, len(sampleBoards))

	first := h.be.board("board1")
	assert.Equal(t, "Spring Campaign", first.Title)
	assert.Equal(t, "2025-03-24", first.DueDateValue())
}

func TestSeedAsksWhenBackendHasBoards(t *testing.T) {
	h := newHarness(t)
	h.be.add(samplePayload())

	out, err := h.run("\n", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend already has 1 boards")
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, h.be.boards, 1)

	_, err = h.run("", "seed", "--yes")
	require.NoError(t, err)
	assert.Len(t, h.be.boards, 1+len(sampleBoards))
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "--author", "ana", "config", "init")
	require.NoError(t, err)
	path := filepath.Join(h.home, ".moodbi.yaml")
	assert.Contains(t, out, "✓ Created config file: "+path)
	assert.FileExists(t, path)

	out, err = h.run("n\n", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = h.run("", "config", "show", "-o", "json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "ana", cfg.Author)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "version", "--short")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}
