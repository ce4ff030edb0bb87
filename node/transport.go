package node

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/net/proxy"
)

// DefaultTorSocksAddr is the SOCKS5 proxy used for .onion node URLs.
const DefaultTorSocksAddr = "localhost:9050"

// splitCredentials removes the userinfo from rawURL and returns it as an rpc.HTTPAuth.
func splitCredentials(rawURL string) (*url.URL, rpc.HTTPAuth, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid node URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, nil, fmt.Errorf("invalid node URL: unsupported scheme %q", u.Scheme)
	}

	if u.User == nil {
		return u, nil, nil
	}

	username := u.User.Username()
	password, _ := u.User.Password()
	u.User = nil

	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	auth := func(h http.Header) error {
		h.Set("Authorization", "Basic "+token)
		return nil
	}
	return u, auth, nil
}

// newHTTPClient returns an HTTP client for u, routed through socksAddr for onion hosts.
func newHTTPClient(u *url.URL, socksAddr string) (*http.Client, error) {
	if !isOnion(u) {
		return &http.Client{}, nil
	}

	if socksAddr == "" {
		socksAddr = DefaultTorSocksAddr
	}

	// The proxy resolves the hostname, onion addresses never hit local DNS.
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("could not create SOCKS5 dialer: %w", err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not support contexts")
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext: contextDialer.DialContext,
		},
	}, nil
}

func isOnion(u *url.URL) bool {
	return strings.HasSuffix(u.Hostname(), ".onion")
}
