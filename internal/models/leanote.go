package models

import "net/http"

// Session is the authenticated state returned by a successful login.
// It is passed explicitly to every API call that needs a token.
type Session struct {
	Token    string `json:"Token"`
	UserID   string `json:"UserId"`
	Email    string `json:"Email"`
	Username string `json:"Username"`
}

// APIStatus is the envelope Leanote returns for failed calls and for login
type APIStatus struct {
	Ok  bool   `json:"Ok"`
	Msg string `json:"Msg"`
}

// Notebook represents a Leanote notebook
type Notebook struct {
	NotebookID       string `json:"NotebookId"`
	ParentNotebookID string `json:"ParentNotebookId"` // Empty for top-level notebooks
	Title            string `json:"Title"`
	Seq              int    `json:"Seq"`
	IsBlog           bool   `json:"IsBlog"`
	IsDeleted        bool   `json:"IsDeleted"`
}

// NoteSummary is a note as listed by getNotes, without its content
type NoteSummary struct {
	NoteID     string `json:"NoteId"`
	NotebookID string `json:"NotebookId"`
	Title      string `json:"Title"`
	IsMarkdown bool   `json:"IsMarkdown"`
	IsTrash    bool   `json:"IsTrash"`
	IsBlog     bool   `json:"IsBlog"`
}

// Note is a note together with its content
type Note struct {
	NoteID      string   `json:"NoteId"`
	NotebookID  string   `json:"NotebookId"`
	Title       string   `json:"Title"`
	CreatedTime string   `json:"CreatedTime"`
	UpdatedTime string   `json:"UpdatedTime"`
	Tags        []string `json:"Tags"`
	IsMarkdown  bool     `json:"IsMarkdown"`
	IsTrash     bool     `json:"IsTrash"`
	IsBlog      bool     `json:"IsBlog"`
	Content     string   `json:"Content"`
}

// Download is the raw result of fetching an arbitrary URL
type Download struct {
	OK         bool
	StatusCode int
	Body       []byte
	Header     http.Header
}
