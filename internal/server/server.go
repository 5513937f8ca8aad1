package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"postgrid/internal/api"
)

// Server is the demo content server. It exposes the same JSON surface the
// client speaks plus a standalone HTML page per post for direct loads.
type Server struct {
	repo    *Repository
	perPage int
	mux     *http.ServeMux
}

func New(repo *Repository, perPage int) *Server {
	if perPage < 1 {
		perPage = 12
	}
	s := &Server{repo: repo, perPage: perPage, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /api/posts", s.handleList)
	s.mux.HandleFunc("GET /api/post/{slug}", s.handleDetail)
	s.mux.HandleFunc("GET /post/{slug}", s.handlePage)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type listResponse struct {
	Items    []api.Summary `json:"items"`
	NextPage *int          `json:"nextPage"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid page parameter", http.StatusBadRequest)
			return
		}
		page = n
	}

	items, hasMore, err := s.repo.ListPage(r.Context(), page, s.perPage)
	if err != nil {
		log.Printf("list posts page %d: %v", page, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := listResponse{Items: items}
	if hasMore {
		next := page + 1
		resp.NextPage = &next
	}
	writeJSON(w, resp)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	detail, err := s.repo.GetBySlug(r.Context(), slug)
	if errors.Is(err, api.ErrNotFound) {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("get post %q: %v", slug, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, detail)
}

var pageTmpl = template.Must(template.New("post").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.ShortDesc}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.ShortDesc}}">
<meta property="og:image" content="{{.Thumbnail}}">
</head>
<body>
<article>
<h1>{{.Title}}</h1>
<p class="byline">{{.Author}} &middot; {{.PublishedAt.Format "2 Jan 2006"}}</p>
{{.Body}}
</article>
</body>
</html>
`))

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	detail, err := s.repo.GetBySlug(r.Context(), slug)
	if errors.Is(err, api.ErrNotFound) {
		http.Error(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("render post page %q: %v", slug, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := struct {
		api.Detail
		Body template.HTML
	}{Detail: detail, Body: template.HTML(detail.Content)}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		log.Printf("execute post template %q: %v", slug, err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
