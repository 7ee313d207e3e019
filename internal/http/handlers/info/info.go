// Package info implements GET /info, which echoes the request back as an
// HTML fragment: peer address and port, request line, and every header.
package info

import (
	"html"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/aanand-mishra/student-webserver/internal/utils/response"
)

// ─────────────────────────────────────────────────────────────────────────────
// Handler returns the /info handler.
// The page is rendered in full first, so Content-Length is exact.
// ─────────────────────────────────────────────────────────────────────────────
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("echoing request", slog.String("remote_addr", r.RemoteAddr))
		response.Write(w, http.StatusOK, response.ContentTypeHTML, []byte(Render(r)))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Render builds the fragment:
//
//	<h1>Request from 127.0.0.1 (54321)</h1>GET /info HTTP/1.1<br>Host: localhost<br>X-Test: 1<br>
//
// Header names are sorted; a header with several values yields one line each.
// Everything taken from the request is HTML-escaped.
// ─────────────────────────────────────────────────────────────────────────────
func Render(r *http.Request) string {
	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host, port = r.RemoteAddr, ""
	}

	var b strings.Builder
	b.WriteString("<h1>Request from " + html.EscapeString(host) + " (" + port + ")</h1>")
	b.WriteString(r.Method + " " + html.EscapeString(r.URL.Path) + " " + r.Proto + "<br>")

	// net/http lifts Host out of the header map.
	if r.Host != "" {
		b.WriteString("Host: " + html.EscapeString(r.Host) + "<br>")
	}

	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, v := range r.Header[name] {
			b.WriteString(html.EscapeString(name) + ": " + html.EscapeString(v) + "<br>")
		}
	}
	return b.String()
}
