package server

import (
	"context"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ziadkadry99/sitegrep/internal/injector"
	"github.com/ziadkadry99/sitegrep/internal/walker"
)

// requestLogger logs one line per request with its request ID.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote", r.RemoteAddr).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

type peerKey struct{}

// peerAddr records the connection's address before RealIP replaces
// RemoteAddr with client-supplied forwarding headers.
func peerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// peerHost returns the host of the connection peer.
func peerHost(r *http.Request) string {
	addr, _ := r.Context().Value(peerKey{}).(string)
	if addr == "" {
		addr = r.RemoteAddr
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// limiterIdleTTL is how long an unused bucket is kept.
const limiterIdleTTL = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps a token bucket per client address. Buckets idle for
// limiterIdleTTL are swept.
type clientLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	rps       float64
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		buckets: make(map[string]*clientBucket),
		rps:     rps,
		burst:   burst,
		now:     time.Now,
	}
}

// allow reports whether client may make a request now.
func (c *clientLimiter) allow(client string) bool {
	if c.rps <= 0 {
		return true
	}
	c.mu.Lock()
	now := c.now()
	if now.Sub(c.lastSweep) >= limiterIdleTTL {
		c.sweep(now)
	}
	b, ok := c.buckets[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(c.rps), c.burst)}
		c.buckets[client] = b
	}
	b.lastSeen = now
	c.mu.Unlock()
	return b.limiter.AllowN(now, 1)
}

// sweep drops idle buckets. Callers hold c.mu.
func (c *clientLimiter) sweep(now time.Time) {
	for client, b := range c.buckets {
		if now.Sub(b.lastSeen) >= limiterIdleTTL {
			delete(c.buckets, client)
		}
	}
	c.lastSweep = now
}

func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buckets)
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.allow(peerHost(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "too many search requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// documentServer serves files under root, except tool state: excluded
// directories (the journal lives in .sitegrep by default), the data
// directory when it sits inside root, backups, and in-flight temp files.
type documentServer struct {
	files   http.Handler
	dataDir string // slash path relative to root, "" when outside it
}

func newDocumentServer(root, dataDir string) *documentServer {
	d := &documentServer{files: http.FileServer(http.Dir(root))}
	if dataDir == "" {
		return d
	}
	absRoot, err1 := filepath.Abs(root)
	absData, err2 := filepath.Abs(dataDir)
	if err1 != nil || err2 != nil {
		return d
	}
	if rel, err := filepath.Rel(absRoot, absData); err == nil && rel != "." && filepath.IsLocal(rel) {
		d.dataDir = filepath.ToSlash(rel)
	}
	return d
}

// hidden reports whether a URL path names tool state rather than a document.
func (d *documentServer) hidden(urlPath string) bool {
	clean := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if d.dataDir != "" && (clean == d.dataDir || strings.HasPrefix(clean, d.dataDir+"/")) {
		return true
	}
	for _, seg := range strings.Split(clean, "/") {
		if walker.IsExcludedDir(seg) || strings.HasPrefix(seg, injector.TempPrefix) {
			return true
		}
	}
	_, _, isBackup := injector.ParseBackupPath(clean)
	return isBackup
}

func (d *documentServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if d.hidden(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	d.files.ServeHTTP(w, r)
}
