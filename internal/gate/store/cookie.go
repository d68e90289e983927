package store

import (
	"net/http"
	"sync"
	"time"
)

// CookieOptions are the attributes applied to every credential cookie.
type CookieOptions struct {
	// Secure marks cookies HTTPS-only. Leave off for plain-HTTP development.
	Secure bool

	// Domain is left empty to scope cookies to the serving host.
	Domain string
}

// CookieStore reads credentials from one request and writes them to its
// response. Values written earlier in the same request are visible to later
// reads, so a gate decision and a refresh in one request agree.
//
// A CookieStore without a request (r == nil) has nothing to read: Get reports
// absent and writes only go to the response, if any.
type CookieStore struct {
	r    *http.Request
	w    http.ResponseWriter
	opts CookieOptions

	mu      sync.Mutex
	pending map[Key]*string
}

// NewCookieStore binds a store to one request/response pair. Either may be
// nil.
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	return &CookieStore{r: r, w: w, opts: opts, pending: map[Key]*string{}}
}

func (s *CookieStore) Get(key Key) (string, bool) {
	s.mu.Lock()
	if v, ok := s.pending[key]; ok {
		s.mu.Unlock()
		if v == nil {
			return "", false
		}
		return *v, true
	}
	s.mu.Unlock()

	if s.r == nil {
		return "", false
	}
	c, err := s.r.Cookie(string(key))
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) Set(key Key, value string, maxAge time.Duration) {
	s.mu.Lock()
	s.pending[key] = &value
	s.mu.Unlock()

	s.write(&http.Cookie{
		Name:   string(key),
		Value:  value,
		MaxAge: int(maxAge / time.Second),
	})
}

func (s *CookieStore) Clear(key Key) {
	s.mu.Lock()
	s.pending[key] = nil
	s.mu.Unlock()

	s.write(&http.Cookie{
		Name:    string(key),
		Value:   "",
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
	})
}

// Dirty reports whether the store has written anything to the response.
func (s *CookieStore) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

func (s *CookieStore) write(c *http.Cookie) {
	if s.w == nil {
		return
	}
	c.Path = "/"
	c.Domain = s.opts.Domain
	c.HttpOnly = true
	c.Secure = s.opts.Secure
	c.SameSite = http.SameSiteLaxMode
	http.SetCookie(s.w, c)
}
