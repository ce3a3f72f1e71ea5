// Utilities for lifting a browser session out of a "Copy as cURL" command.
package shared

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderPattern = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookiePattern = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
	curlURLPattern    = regexp.MustCompile(`(?:'|")?(https?://[^\s'"]+)`)
)

// CurlSession is the request context captured from a cURL command: target URL, headers, and the raw cookie string.
type CurlSession struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts the session.
func ParseCurlFile(path string) (*CurlSession, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command. Cookies given with -b win over a Cookie header.
func ParseCurlCommand(data []byte) (*CurlSession, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	session := &CurlSession{Headers: map[string]string{}}
	if m := curlURLPattern.FindStringSubmatch(cmd); m != nil {
		session.URL = m[1]
	}

	var headerCookie string
	for _, m := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		session.Headers[key] = value
	}

	if m := curlCookiePattern.FindStringSubmatch(cmd); m != nil {
		session.Cookie = firstGroup(m)
	} else {
		session.Cookie = headerCookie
	}

	if len(session.Headers) == 0 && session.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers or cookies found in curl command", ErrInvalidInput)
	}
	return session, nil
}

// Cookies splits the cookie string into individual cookies, skipping malformed pairs.
func (c *CurlSession) Cookies() []*http.Cookie {
	return ParseCookieString(c.Cookie)
}

// Host returns the host of the captured URL, or "" when none was found.
func (c *CurlSession) Host() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ParseCookieString splits a "k=v; k2=v2" Cookie header value.
func ParseCookieString(raw string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: strings.Trim(strings.TrimSpace(value), `"`)})
	}
	return cookies
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
