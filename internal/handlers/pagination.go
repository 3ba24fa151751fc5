package handlers

import (
  "net/url"
  "strconv"

  "github.com/gin-gonic/gin"
)

const (
  DefaultPageSize = 20
  MaxPageSize     = 100
)

// Page is the parsed page/page_size query pair.
type Page struct {
  Number int
  Size   int
}

func (p Page) Limit() int  { return p.Size }
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ParsePage reads page/page_size with defaults and clamping; malformed or
// out-of-range values fall back to defaults rather than erroring.
func ParsePage(c *gin.Context) Page {
  page := 1
  if raw := c.Query("page"); raw != "" {
    if n, err := strconv.Atoi(raw); err == nil && n > 0 {
      page = n
    }
  }
  size := DefaultPageSize
  if raw := c.Query("page_size"); raw != "" {
    if n, err := strconv.Atoi(raw); err == nil && n > 0 {
      size = n
    }
  }
  if size > MaxPageSize {
    size = MaxPageSize
  }
  return Page{Number: page, Size: size}
}

// Paginated is the list envelope: count plus absolute next/previous links.
type Paginated struct {
  Count    int64   `json:"count"`
  Next     *string `json:"next"`
  Previous *string `json:"previous"`
  Results  any     `json:"results"`
}

func NewPaginated(c *gin.Context, page Page, count int64, results any) Paginated {
  p := Paginated{Count: count, Results: results}
  if int64(page.Offset()+page.Size) < count {
    p.Next = pageURL(c, page.Number+1, page.Size)
  }
  if page.Number > 1 {
    p.Previous = pageURL(c, page.Number-1, page.Size)
  }
  return p
}

func pageURL(c *gin.Context, page, size int) *string {
  u := *c.Request.URL
  q := u.Query()
  q.Set("page", strconv.Itoa(page))
  q.Set("page_size", strconv.Itoa(size))
  u.RawQuery = q.Encode()

  // Behind a TLS-terminating proxy the request arrives over plain HTTP;
  // the proxy reports the client-facing scheme via X-Forwarded-Proto.
  scheme := c.GetHeader("X-Forwarded-Proto")
  if scheme == "" {
    scheme = "http"
    if c.Request.TLS != nil {
      scheme = "https"
    }
  }
  abs := url.URL{Scheme: scheme, Host: c.Request.Host, Path: u.Path, RawQuery: u.RawQuery}
  s := abs.String()
  return &s
}
