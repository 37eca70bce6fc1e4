// Package export builds the downloadable chat archive: one folder per
// contact with an HTML transcript and the attachments that could still be
// fetched, packed into a single zip.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kostikrut/bubbly-back/config"
	"github.com/Kostikrut/bubbly-back/internal/models"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

var ErrNoContacts = errors.New("no contacts or chats found")

// ContactSource yields the exporting user's contact list.
type ContactSource interface {
	GetContacts(userID uint) ([]models.User, error)
}

// MessageSource yields the full conversation between two users, oldest
// first.
type MessageSource interface {
	FindBetween(userA, userB uint) ([]models.Message, error)
}

// Exporter stages transcripts and media on local disk, then zips the
// staging directory. Media fetching is best-effort: a dead link loses the
// attachment, never the export.
type Exporter struct {
	contacts ContactSource
	messages MessageSource
	cfg      *config.ExportConfig
	client   *http.Client

	// localPrefix/localDir map same-host media URLs back onto the upload
	// directory so exports do not loop through our own HTTP server.
	localPrefix string
	localDir    string

	logger *logger.Logger
}

func NewExporter(contacts ContactSource, messages MessageSource, cfg *config.ExportConfig, localPrefix, localDir string, log *logger.Logger) *Exporter {
	timeout := time.Duration(cfg.DownloadTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Exporter{
		contacts:    contacts,
		messages:    messages,
		cfg:         cfg,
		client:      &http.Client{Timeout: timeout},
		localPrefix: strings.TrimSuffix(localPrefix, "/"),
		localDir:    localDir,
		logger:      log,
	}
}

// ArchiveName is the filename offered to the downloading client.
func ArchiveName(userID uint) string {
	return fmt.Sprintf("chat-export-%d.zip", userID)
}

// Export stages one folder per contact under the temp dir, zips the lot
// and returns the archive path together with a cleanup func the caller
// must run once the archive has been served. Contacts are processed
// sequentially; an export is a rare, heavy operation and bounding its
// footprint matters more than latency.
func (e *Exporter) Export(ctx context.Context, userID uint) (string, func(), error) {
	contacts, err := e.contacts.GetContacts(userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	if len(contacts) == 0 {
		return "", nil, ErrNoContacts
	}

	staging := filepath.Join(e.cfg.TempDir, fmt.Sprintf("chat-export-%d-%d", userID, time.Now().UnixNano()))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	for _, contact := range contacts {
		if err := e.stageContact(ctx, staging, userID, contact); err != nil {
			os.RemoveAll(staging)
			return "", nil, err
		}
	}

	zipPath := staging + ".zip"
	if err := zipDirectory(staging, zipPath); err != nil {
		os.RemoveAll(staging)
		os.Remove(zipPath)
		return "", nil, err
	}

	cleanup := func() {
		os.RemoveAll(staging)
		os.Remove(zipPath)
	}
	return zipPath, cleanup, nil
}

// stageContact writes <staging>/<nickname>/chat.html plus a media/ folder
// for one conversation.
func (e *Exporter) stageContact(ctx context.Context, staging string, userID uint, contact models.User) error {
	contactDir := filepath.Join(staging, contact.Nickname)
	mediaDir := filepath.Join(contactDir, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create contact dir: %w", err)
	}

	messages, err := e.messages.FindBetween(userID, contact.ID)
	if err != nil {
		return fmt.Errorf("failed to load conversation with %s: %w", contact.Nickname, err)
	}

	bubbles := make([]bubble, 0, len(messages))
	for _, msg := range messages {
		b := bubble{
			Sent: msg.SenderID == userID,
			Text: msg.Text,
			Time: formatBubbleTime(msg.CreatedAt),
		}
		for _, kind := range models.MediaKinds {
			rawURL := msg.MediaURL(kind)
			if rawURL == "" {
				continue
			}
			filename, err := e.fetchMedia(ctx, rawURL, mediaDir)
			if err != nil {
				e.logger.Warn("failed to fetch media for export",
					zap.Uint("user_id", userID),
					zap.String("kind", kind),
					zap.String("url", rawURL),
					zap.Error(err),
				)
				continue
			}
			b.Media = append(b.Media, mediaTag(kind, filename))
		}
		bubbles = append(bubbles, b)
	}

	out, err := os.Create(filepath.Join(contactDir, "chat.html"))
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	defer out.Close()

	if err := renderTranscript(out, contact.Name, bubbles); err != nil {
		return fmt.Errorf("failed to render transcript: %w", err)
	}
	return nil
}

// fetchMedia materializes one attachment into mediaDir and returns the
// stored filename. Same-host upload URLs are copied straight from disk,
// anything absolute goes through HTTP.
func (e *Exporter) fetchMedia(ctx context.Context, rawURL, mediaDir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad media url: %w", err)
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		return "", fmt.Errorf("media url %q has no filename", rawURL)
	}
	dest := filepath.Join(mediaDir, filename)

	if parsed.Scheme == "" && e.localPrefix != "" && strings.HasPrefix(parsed.Path, e.localPrefix+"/") {
		rel := strings.TrimPrefix(parsed.Path, e.localPrefix+"/")
		return filename, copyFile(filepath.Join(e.localDir, filepath.FromSlash(rel)), dest)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported media url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media url %q returned %s", rawURL, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return "", err
	}
	return filename, out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
