package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/karnika-s/heart-temp-sub000/internal/config"
)

// captureWriter tees the response body into buf, up to limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status    int
	buf       bytes.Buffer
	limit     int64
	truncated bool
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.truncated {
		if w.limit > 0 && int64(w.buf.Len()+len(b)) > w.limit {
			w.truncated = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

type cachedResponse struct {
	Status int         `json:"s"`
	Header http.Header `json:"h"`
	Body   []byte      `json:"b"`
}

// ResponseCache keeps successful GET responses in Redis.  Every key
// embeds a generation number; Invalidate bumps it, so one write drops
// all cached reads at once without scanning.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Second
	}
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool { return rc.cfg.Enabled && rc.rdb != nil }

func (rc *ResponseCache) genKey() string { return rc.cfg.Prefix + ":gen" }

func (rc *ResponseCache) key(ctx context.Context, c echo.Context) (string, error) {
	gen, err := rc.rdb.Get(ctx, rc.genKey()).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	r := c.Request()
	var parts []string
	switch strings.ToLower(rc.cfg.KeyStrategy) {
	case "route":
		parts = []string{c.Path()}
	case "method_route":
		parts = []string{r.Method, c.Path()}
	case "method_route_query":
		parts = []string{r.Method, c.Path(), r.URL.RawQuery}
	default:
		parts = []string{c.Path(), r.URL.RawQuery}
	}
	// path params are part of the identity of the resource
	parts = append(parts, strings.Join(c.ParamValues(), "/"), subject(c))
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%s:%d:%x", rc.cfg.Prefix, gen, sum), nil
}

// Middleware serves and fills the cache.  Only methods listed in the
// config are cached and only 200 responses are stored.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rc.cfg.Methods[c.Request().Method] {
				return next(c)
			}
			ctx := c.Request().Context()
			key, err := rc.key(ctx, c)
			if err != nil {
				return next(c)
			}

			if raw, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(raw, &hit) == nil {
					h := c.Response().Header()
					for k, vs := range hit.Header {
						if k == echo.HeaderContentLength {
							continue
						}
						h[k] = vs
					}
					h.Set("X-Cache", "HIT")
					c.Response().WriteHeader(hit.Status)
					_, _ = c.Response().Write(hit.Body)
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(rc.cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.truncated {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status: cw.status,
				Header: c.Response().Header().Clone(),
				Body:   cw.buf.Bytes(),
			})
			if err == nil {
				_ = rc.rdb.Set(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err()
			}
			return nil
		}
	}
}

// Invalidate bumps the cache generation after every successful write
// passing through it.
func (rc *ResponseCache) Invalidate() echo.MiddlewareFunc {
	if !rc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if c.Request().Method == http.MethodGet || err != nil || c.Response().Status >= http.StatusBadRequest {
				return err
			}
			if ierr := rc.rdb.Incr(context.WithoutCancel(c.Request().Context()), rc.genKey()).Err(); ierr != nil {
				c.Logger().Warnf("cache: invalidate: %v", ierr)
			}
			return nil
		}
	}
}
