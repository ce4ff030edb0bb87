package registry

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ruteri/amp-confirm/interfaces"
)

// Factory creates authenticated registry clients for different base URLs
// using one set of credentials.
type Factory struct {
	username   string
	password   string
	httpClient *http.Client
	log        *slog.Logger
}

// NewFactory creates a new factory for registry clients.
func NewFactory(username, password string, httpClient *http.Client, log *slog.Logger) *Factory {
	return &Factory{
		username:   username,
		password:   password,
		httpClient: httpClient,
		log:        log,
	}
}

// RegistryFor returns a client for baseURL that has already obtained its token.
func (f *Factory) RegistryFor(ctx context.Context, baseURL string) (interfaces.Registry, error) {
	c := NewClient(baseURL, f.httpClient, f.log.With(slog.String("registry", baseURL)))
	if err := c.Login(ctx, f.username, f.password); err != nil {
		return nil, err
	}
	return c, nil
}
