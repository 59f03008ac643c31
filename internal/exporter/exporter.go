// Package exporter drives a full Leanote export: login, notebook tree,
// notes, link localization and writing the Markdown files.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/takak2166/leanote2md/internal/hierarchy"
	"github.com/takak2166/leanote2md/internal/localizer"
	"github.com/takak2166/leanote2md/internal/logger"
	"github.com/takak2166/leanote2md/internal/models"
	"github.com/takak2166/leanote2md/internal/storage"
)

type (
	// Service is the Leanote API as the exporter uses it
	Service interface {
		Login(ctx context.Context, email, password string) (*models.Session, error)
		ListNotebooks(ctx context.Context, sess *models.Session) ([]models.Notebook, error)
		ListNotes(ctx context.Context, sess *models.Session, notebookID string) ([]models.NoteSummary, error)
		GetNote(ctx context.Context, sess *models.Session, noteID string) (*models.Note, error)
	}

	// Localizer rewrites resource links of a note body
	Localizer interface {
		Localize(ctx context.Context, sess *models.Session, body, noteDir string) (string, localizer.Stats)
	}

	// Writer stores exported notes
	Writer interface {
		EnsureDir(dir string) error
		WriteFile(path string, data []byte) error
	}

	// Publisher mirrors exported notes somewhere else
	Publisher interface {
		CreatePage(ctx context.Context, title, content string, tags []string) error
	}

	// Progress is told about each processed note
	Progress interface {
		Grow(n int)
		Advance(label string)
	}
)

// Options are the export settings outside of link localization
type Options struct {
	Email      string
	Password   string
	OutputPath string
	OnlyBlog   bool
	OutputMeta bool
}

// Stats summarizes a run
type Stats struct {
	Notebooks  int
	Unresolved int
	Notes      int
	Exported   int
	Skipped    int
	Failed     int
	Resources  localizer.Stats
}

// Exporter exports every note of an account. Localizer, Publisher and
// Progress are optional.
type Exporter struct {
	Service   Service
	Localizer Localizer
	Writer    Writer
	Publisher Publisher
	Progress  Progress
	Options   Options

	resources localizer.Stats
	exported  map[string]string
}

// Run performs the export. Only a failed login aborts it; everything else,
// including notebooks caught in a parent cycle, is logged and skipped.
func (e *Exporter) Run(ctx context.Context) (*Stats, error) {
	sess, err := e.Service.Login(ctx, e.Options.Email, e.Options.Password)
	if err != nil {
		return nil, err
	}

	e.resources = localizer.Stats{}
	e.exported = map[string]string{}
	stats := &Stats{}

	notebooks, err := e.Service.ListNotebooks(ctx, sess)
	if err != nil {
		logger.Error("Failed to get notebooks", err)
		notebooks = nil
	}

	tree, err := hierarchy.Resolve(notebooks)
	if err != nil {
		logger.Error("Skipping notebooks on a parent cycle", err)
	}
	paths := tree.Paths()
	logger.Info(fmt.Sprintf("Found %d notebooks to export", tree.Len()), nil)

	for _, nb := range notebooks {
		if nb.IsDeleted {
			continue
		}
		if _, ok := tree.Node(nb.NotebookID); !ok {
			stats.Unresolved++
			continue
		}
		stats.Notebooks++

		notes, err := e.Service.ListNotes(ctx, sess, nb.NotebookID)
		if err != nil {
			logger.Error("Failed to get notes", err, map[string]interface{}{
				"notebook": nb.Title,
			})
			continue
		}
		e.grow(len(notes))

		for _, summary := range notes {
			if err := ctx.Err(); err != nil {
				stats.Resources = e.resources
				return stats, err
			}

			note, err := e.Service.GetNote(ctx, sess, summary.NoteID)
			if err != nil {
				stats.Failed++
				logger.Error("Failed to get note", err, map[string]interface{}{
					"note": summary.Title,
				})
				e.advance(summary.Title)
				continue
			}
			stats.Notes++

			path, err := e.SaveNote(ctx, sess, note, paths)
			switch {
			case err != nil:
				stats.Failed++
				logger.Error("Failed to save note", err, map[string]interface{}{
					"note": note.Title,
				})
			case path == "":
				stats.Skipped++
			default:
				stats.Exported++
			}
			e.advance(note.Title)
		}
	}

	stats.Resources = e.resources
	return stats, nil
}

// SaveNote writes one note below its notebook folder and returns the file
// path. Trashed, non-Markdown and, with OnlyBlog, non-blog notes are
// skipped and yield an empty path.
func (e *Exporter) SaveNote(ctx context.Context, sess *models.Session, note *models.Note, paths map[string]string) (string, error) {
	if note.IsTrash || !note.IsMarkdown {
		return "", nil
	}
	if e.Options.OnlyBlog && !note.IsBlog {
		return "", nil
	}

	dir := e.Options.OutputPath
	if folder, ok := paths[note.NotebookID]; ok {
		within, err := storage.Within(e.Options.OutputPath, folder)
		if err != nil {
			logger.Warn("Notebook folder escapes the output path, using the output root", map[string]interface{}{
				"folder": folder,
			})
		} else {
			dir = within
		}
	}
	if err := e.Writer.EnsureDir(dir); err != nil {
		return "", err
	}

	filePath := filepath.Join(dir, storage.SanitizeName(note.Title)+".md")
	logger.Info("Saving note", map[string]interface{}{
		"path": filePath,
	})

	content := note.Content
	if e.Localizer != nil {
		var s localizer.Stats
		content, s = e.Localizer.Localize(ctx, sess, content, dir)
		e.resources.Add(s)
	}

	var buf bytes.Buffer
	if e.Options.OutputMeta {
		if err := writeFrontMatter(&buf, note); err != nil {
			return "", err
		}
	}
	buf.WriteString(content)

	if err := e.Writer.WriteFile(filePath, buf.Bytes()); err != nil {
		return "", err
	}
	if e.exported == nil {
		e.exported = map[string]string{}
	}
	e.exported[note.NotebookID] = filePath

	if e.Publisher != nil {
		if err := e.Publisher.CreatePage(ctx, note.Title, content, note.Tags); err != nil {
			logger.Error("Failed to mirror note to Notion", err, map[string]interface{}{
				"note": note.Title,
			})
		}
	}
	return filePath, nil
}

// Exported maps each notebook id to the last note file written for it
func (e *Exporter) Exported() map[string]string {
	out := make(map[string]string, len(e.exported))
	for k, v := range e.exported {
		out[k] = v
	}
	return out
}

func (e *Exporter) grow(n int) {
	if e.Progress != nil {
		e.Progress.Grow(n)
	}
}

func (e *Exporter) advance(label string) {
	if e.Progress != nil {
		e.Progress.Advance(label)
	}
}

type frontMatter struct {
	Title string   `yaml:"title"`
	Date  string   `yaml:"date"`
	Tags  []string `yaml:"tags"`
}

func writeFrontMatter(buf *bytes.Buffer, note *models.Note) error {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	buf.WriteString("---\n")
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(frontMatter{Title: note.Title, Date: note.CreatedTime, Tags: tags}); err != nil {
		return fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode front matter: %w", err)
	}
	buf.WriteString("---\n")
	return nil
}
