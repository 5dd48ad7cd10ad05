package routes

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Route is one egress path. The zero value is the direct route (no proxy).
type Route struct {
	// Proxy is the normalized proxy URL, empty for direct egress.
	Proxy string
}

// Direct is the proxyless route used when routed mode is off.
var Direct = Route{}

// IsDirect reports whether this route egresses without a proxy.
func (r Route) IsDirect() bool { return r.Proxy == "" }

// Label returns the identity used in log lines: "direct" or the proxy URL.
func (r Route) Label() string {
	if r.IsDirect() {
		return "direct"
	}
	return r.Proxy
}

// ProxyFunc returns a proxy selection function suitable for
// http.Transport.Proxy and websocket.Dialer.Proxy. The direct route returns
// nil so the transport uses no proxy at all (not even the environment's).
// An unparseable proxy URL surfaces as an error from the returned function
// on first use.
func (r Route) ProxyFunc() func(*http.Request) (*url.URL, error) {
	if r.IsDirect() {
		return nil
	}
	u, err := url.Parse(r.Proxy)
	return func(*http.Request) (*url.URL, error) {
		if err != nil {
			return nil, fmt.Errorf("routes: parse proxy %q: %w", r.Proxy, err)
		}
		return u, nil
	}
}

// Normalize prepends "http://" when the raw proxy entry carries no scheme.
// Already-normalized input passes through unchanged, so the function is
// idempotent.
func Normalize(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}

// Load reads the route file at path: one proxy endpoint per line, blank
// lines dropped, each entry normalized. A missing file is an error; the
// caller decides whether that is fatal (it is only when routed mode was
// requested).
func Load(path string) ([]Route, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("routes: open %q: %w", path, err)
	}
	defer f.Close()

	var out []Route
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, Route{Proxy: Normalize(line)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("routes: read %q: %w", path, err)
	}
	return out, nil
}
