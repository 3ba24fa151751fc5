package handlers

import (
  "net/http/httptest"
  "testing"

  "github.com/gin-gonic/gin"
)

func pageContext(t *testing.T, target string) *gin.Context {
  t.Helper()
  gin.SetMode(gin.TestMode)
  c, _ := gin.CreateTestContext(httptest.NewRecorder())
  c.Request = httptest.NewRequest("GET", target, nil)
  c.Request.Host = "api.test"
  return c
}

func TestParsePage(t *testing.T) {
  cases := []struct {
    name   string
    target string
    number int
    size   int
  }{
    {"defaults", "/api/sessions", 1, 20},
    {"explicit", "/api/sessions?page=3&page_size=5", 3, 5},
    {"clamped to max", "/api/sessions?page_size=500", 1, 100},
    {"garbage falls back", "/api/sessions?page=abc&page_size=-2", 1, 20},
    {"zero falls back", "/api/sessions?page=0", 1, 20},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      got := ParsePage(pageContext(t, tc.target))
      if got.Number != tc.number || got.Size != tc.size {
        t.Fatalf("ParsePage = %+v, want number %d size %d", got, tc.number, tc.size)
      }
    })
  }
}

func TestPageOffset(t *testing.T) {
  p := Page{Number: 3, Size: 10}
  if p.Offset() != 20 || p.Limit() != 10 {
    t.Fatalf("offset %d limit %d, want 20 and 10", p.Offset(), p.Limit())
  }
}

func TestNewPaginatedLinks(t *testing.T) {
  c := pageContext(t, "/api/sessions?page=2&page_size=2")
  p := NewPaginated(c, Page{Number: 2, Size: 2}, 5, []int{3, 4})

  if p.Count != 5 {
    t.Fatalf("count = %d, want 5", p.Count)
  }
  if p.Next == nil || *p.Next != "http://api.test/api/sessions?page=3&page_size=2" {
    t.Fatalf("next = %v", p.Next)
  }
  if p.Previous == nil || *p.Previous != "http://api.test/api/sessions?page=1&page_size=2" {
    t.Fatalf("previous = %v", p.Previous)
  }
}

func TestNewPaginatedForwardedProto(t *testing.T) {
  c := pageContext(t, "/api/sessions?page=2&page_size=2")
  c.Request.Header.Set("X-Forwarded-Proto", "https")
  p := NewPaginated(c, Page{Number: 2, Size: 2}, 5, nil)

  if p.Next == nil || *p.Next != "https://api.test/api/sessions?page=3&page_size=2" {
    t.Fatalf("next = %v, want https link", p.Next)
  }
  if p.Previous == nil || *p.Previous != "https://api.test/api/sessions?page=1&page_size=2" {
    t.Fatalf("previous = %v, want https link", p.Previous)
  }
}

func TestNewPaginatedBoundaryPages(t *testing.T) {
  first := NewPaginated(pageContext(t, "/api/sessions"), Page{Number: 1, Size: 20}, 5, nil)
  if first.Next != nil || first.Previous != nil {
    t.Fatalf("single page should have no links: %+v", first)
  }

  last := NewPaginated(pageContext(t, "/api/sessions?page=3&page_size=2"), Page{Number: 3, Size: 2}, 5, nil)
  if last.Next != nil {
    t.Fatalf("last page should have no next link: %v", last.Next)
  }
  if last.Previous == nil {
    t.Fatal("last page should link back")
  }
}
