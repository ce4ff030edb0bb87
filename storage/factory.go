package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/amp-confirm/interfaces"
)

// DisabledURI turns journaling off.
const DisabledURI = "none"

// NewJournal creates a checkpoint journal from a location URI.
// The URI format should be [scheme]://[path]
//
// Supported schemes:
//   - file:// - JSON lines file
//   - sqlite:// - sqlite database
//
// An empty URI or "none" returns a journal that records nothing.
func NewJournal(locationURI string, clk clock.Clock, log *slog.Logger) (interfaces.CheckpointJournal, error) {
	if locationURI == "" || locationURI == DisabledURI {
		log.Debug("Checkpoint journal disabled")
		return disabledJournal{}, nil
	}

	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidJournalURI, err)
	}

	path, err := pathFromURI(u)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		log.Debug("Creating file journal", slog.String("path", path))
		return NewFileJournal(path, clk, log)
	case "sqlite":
		log.Debug("Creating sqlite journal", slog.String("path", path))
		return NewSqliteJournal(path, clk, log)
	default:
		return nil, fmt.Errorf("%w: unsupported journal scheme: %q", interfaces.ErrInvalidJournalURI, u.Scheme)
	}
}

// pathFromURI handles absolute (file:///abs) and relative (file://./rel) paths.
func pathFromURI(u *url.URL) (string, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty path in %s", interfaces.ErrInvalidJournalURI, u.String())
	}
	return path, nil
}
