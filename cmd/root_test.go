package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Ok":true,"Token":"tok","UserId":"u1"}`))
	})
	mux.HandleFunc("/api/notebook/getNotebooks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"NotebookId":"nb1","ParentNotebookId":"","Title":"Work"},
			{"NotebookId":"nb2","ParentNotebookId":"nb1","Title":"Notes"},
			{"NotebookId":"nb3","ParentNotebookId":"","Title":"Blog"}
		]`))
	})
	mux.HandleFunc("/api/note/getNotes", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("notebookId") != "nb2" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[{"NoteId":"n1","NotebookId":"nb2","Title":"Todo"}]`))
	})
	mux.HandleFunc("/api/note/getNoteAndContent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"NoteId":"n1","NotebookId":"nb2","Title":"Todo","IsMarkdown":true,"Content":"- [ ] write tests\n"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LEANOTE_PASSWORD", "secret")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTreeCmd(t *testing.T) {
	srv := fakeServer(t)

	out, err := execute(t, "tree", "--host", srv.URL, "--email", "me@example.com", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "- Blog\n- Work\n  - Notes\n", out)
}

func TestExportCmd(t *testing.T) {
	srv := fakeServer(t)
	dir := filepath.Join(t.TempDir(), "backup")

	out, err := execute(t, "export",
		"--host", srv.URL,
		"--email", "me@example.com",
		"--log-level", "error",
		"--output", dir,
		"--progress=false",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 of 1 notes from 3 notebooks")

	data, err := os.ReadFile(filepath.Join(dir, "Work", "Notes", "Todo.md"))
	require.NoError(t, err)
	assert.Equal(t, "- [ ] write tests\n", string(data))
}

func TestExportCmdRequiresEmail(t *testing.T) {
	t.Setenv("LEANOTE_EMAIL", "")
	_, err := execute(t, "export", "--log-level", "error")
	assert.ErrorContains(t, err, "email is required")
}

func TestExportCmdMissingConfig(t *testing.T) {
	_, err := execute(t, "export", "--email", "me@example.com", "--log-level", "error", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
