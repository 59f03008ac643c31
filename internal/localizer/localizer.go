// Package localizer rewrites image and attachment links in a note body so
// that they point at local copies of the resources.
package localizer

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/takak2166/leanote2md/internal/leanote"
	"github.com/takak2166/leanote2md/internal/logger"
	"github.com/takak2166/leanote2md/internal/models"
	"github.com/takak2166/leanote2md/internal/storage"
)

// Kind selects which link markup a pass rewrites
type Kind int

const (
	// KindImage rewrites ![alt](url)
	KindImage Kind = iota
	// KindAttachment rewrites [text](url), leaving image markup alone
	KindAttachment
)

func (k Kind) String() string {
	if k == KindImage {
		return "image"
	}
	return "attachment"
}

const (
	imageEndpoint  = "/api/file/getImage"
	attachEndpoint = "/api/file/getAttach"

	defaultImageExt = ".png"
)

var (
	imagePattern = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	// The optional leading "!" lets the attachment pass recognize and skip images
	linkPattern = regexp.MustCompile(`(!?)\[(.*?)\]\((.*?)\)`)
)

// Options controls where resources go and how links are rewritten
type Options struct {
	LocalizeImage bool
	ImgPath       string
	ImgLinkPath   string
	ImgExternal   bool

	LocalizeAttach bool
	AttachPath     string
	AttachLinkPath string

	ForcedSave bool
}

// Stats counts what a rewrite did
type Stats struct {
	Downloaded int
	Cached     int
	Failed     int
	Rewritten  int
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Downloaded += o.Downloaded
	s.Cached += o.Cached
	s.Failed += o.Failed
	s.Rewritten += o.Rewritten
}

// Localizer downloads linked resources and rewrites the links
type Localizer struct {
	fetcher Fetcher
	store   Store
	opts    Options
}

// New creates a Localizer
func New(fetcher Fetcher, store Store, opts Options) *Localizer {
	return &Localizer{fetcher: fetcher, store: store, opts: opts}
}

// Localize runs the enabled passes over body, images first.
// noteDir is the folder the note itself is written to.
func (l *Localizer) Localize(ctx context.Context, sess *models.Session, body, noteDir string) (string, Stats) {
	var total Stats
	if l.opts.LocalizeImage {
		var s Stats
		body, s = l.Rewrite(ctx, sess, body, noteDir, KindImage)
		total.Add(s)
	}
	if l.opts.LocalizeAttach {
		var s Stats
		body, s = l.Rewrite(ctx, sess, body, noteDir, KindAttachment)
		total.Add(s)
	}
	return body, total
}

// Rewrite runs a single pass of the given kind over body
func (l *Localizer) Rewrite(ctx context.Context, sess *models.Session, body, noteDir string, kind Kind) (string, Stats) {
	var stats Stats

	pattern, textGroup, urlGroup := imagePattern, 1, 2
	if kind == KindAttachment {
		pattern, textGroup, urlGroup = linkPattern, 2, 3
	}

	matches := pattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, stats
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		out.WriteString(body[last:m[0]])
		last = m[1]
		original := body[m[0]:m[1]]

		if kind == KindAttachment && m[3] > m[2] {
			// ![..](..) belongs to the image pass
			out.WriteString(original)
			continue
		}

		text := body[m[2*textGroup]:m[2*textGroup+1]]
		target, title := splitTitle(body[m[2*urlGroup]:m[2*urlGroup+1]])

		filename, err := l.save(ctx, sess, target, noteDir, kind, &stats)
		if err != nil {
			stats.Failed++
			logger.Error(fmt.Sprintf("Failed to localize %s", kind), err, map[string]interface{}{
				"url": target,
			})
			out.WriteString(original)
			continue
		}
		if filename == "" {
			out.WriteString(original)
			continue
		}

		stats.Rewritten++
		link := l.linkPath(kind) + "/" + linkEscaper.Replace(filename)
		if kind == KindImage {
			out.WriteString("!")
		}
		out.WriteString("[" + text + "](" + link + title + ")")
	}
	out.WriteString(body[last:])

	return out.String(), stats
}

// save fetches the resource behind target and stores it. An empty filename
// means the link is not one this pass handles and must stay as it is.
func (l *Localizer) save(ctx context.Context, sess *models.Session, target, noteDir string, kind Kind, stats *Stats) (string, error) {
	if target == "" {
		return "", nil
	}
	if lp := l.linkPath(kind); lp != "" && strings.HasPrefix(target, lp+"/") {
		return "", nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", nil
	}

	var (
		data     []byte
		filename string
	)
	switch {
	case isEndpoint(u, imageEndpoint):
		fileID := u.Query().Get("fileId")
		if fileID == "" {
			return "", nil
		}
		data, filename, err = l.fetcher.GetImage(ctx, sess, fileID)
		if err != nil {
			return "", err
		}
		if filename == "" {
			filename = fileID + defaultImageExt
		}
	case kind == KindAttachment && isEndpoint(u, attachEndpoint):
		fileID := u.Query().Get("fileId")
		if fileID == "" {
			return "", nil
		}
		data, filename, err = l.fetcher.GetAttach(ctx, sess, fileID)
		if err != nil {
			return "", err
		}
		if filename == "" {
			filename = fileID
		}
	case kind == KindImage && l.opts.ImgExternal && (u.Scheme == "http" || u.Scheme == "https"):
		dl, err := l.fetcher.Download(ctx, target)
		if err != nil {
			return "", err
		}
		if !dl.OK {
			return "", fmt.Errorf("unexpected status %d", dl.StatusCode)
		}
		data = dl.Body
		filename = leanote.DispositionFilename(dl.Header.Get("Content-Disposition"))
		if filename == "" {
			filename = lastSegment(u)
		}
		if filename == "" {
			return "", nil
		}
	default:
		return "", nil
	}

	filename = storage.SanitizeName(filename)
	dir := l.resourceDir(noteDir, kind)
	if err := l.store.EnsureDir(dir); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, filename)
	exists, err := l.store.Exists(dest)
	if err != nil {
		return "", err
	}
	if exists && !l.opts.ForcedSave {
		stats.Cached++
		logger.Debug(fmt.Sprintf("Keeping existing %s", kind), map[string]interface{}{
			"path": dest,
		})
		return filename, nil
	}

	logger.Info(fmt.Sprintf("Saving %s", kind), map[string]interface{}{
		"path": dest,
	})
	if err := l.store.WriteFile(dest, data); err != nil {
		return "", err
	}
	stats.Downloaded++
	return filename, nil
}

// linkEscaper percent-encodes what would end a Markdown link destination early
var linkEscaper = strings.NewReplacer("%", "%25", " ", "%20", "(", "%28", ")", "%29")

func (l *Localizer) resourceDir(noteDir string, kind Kind) string {
	dir := l.opts.ImgPath
	if kind == KindAttachment {
		dir = l.opts.AttachPath
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(noteDir, dir)
}

func (l *Localizer) linkPath(kind Kind) string {
	if kind == KindAttachment {
		return strings.TrimRight(l.opts.AttachLinkPath, "/")
	}
	return strings.TrimRight(l.opts.ImgLinkPath, "/")
}

func isEndpoint(u *url.URL, endpoint string) bool {
	return strings.HasSuffix(strings.TrimRight(u.Path, "/"), endpoint)
}

func lastSegment(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return ""
	}
	return name
}

// splitTitle separates a link destination from an optional ` "title"` part
func splitTitle(dest string) (string, string) {
	if i := strings.IndexAny(dest, " \t"); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}
