package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/locale"
	"ofertaglobal/dealfinder/internal/search"
	"ofertaglobal/dealfinder/internal/session"
	"ofertaglobal/dealfinder/internal/sorter"
	"ofertaglobal/dealfinder/logger"
)

//go:embed templates/index.html
var templates embed.FS

// Server renders the deal page and serves the JSON API
type Server struct {
	store    *session.Store
	searcher search.Searcher
	page     *template.Template
	log      *logger.Logger

	// The browser locale is only consulted on the first page view
	detectOnce sync.Once
}

// New creates a server for the session store. searcher serves the stateless API
// and should be the same searcher the store uses.
func New(store *session.Store, searcher search.Searcher, log *logger.Logger) (*Server, error) {
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"share":     deal.ShareURL,
		"modeLabel": func(m deal.Mode) string { return m.Info().Label },
		"ctaLabel":  func(m deal.Mode) string { return m.Info().CTALabel },
		"accent":    func(m deal.Mode) string { return m.Info().Accent },
		"sortLabel": func(o deal.SortOrder) string { return o.Label() },
	}).ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.ForServer()
	}

	return &Server{
		store:    store,
		searcher: searcher,
		page:     page,
		log:      log,
	}, nil
}

// Routes registers every endpoint on a new mux
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /mode", s.handleMode)
	mux.HandleFunc("POST /sort", s.handleSort)
	mux.HandleFunc("POST /location", s.handleLocation)

	mux.HandleFunc("GET /api/deals", s.handleAPIDeals)
	mux.HandleFunc("GET /api/state", s.handleAPIState)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// Handler wraps the routes in the middleware chain.
// Order: CORS → Recovery → RequestLog → Routes
func (s *Server) Handler(corsOrigins string) http.Handler {
	var handler http.Handler = s.Routes()
	handler = RequestLog(s.log)(handler)
	handler = Recovery(s.log)(handler)
	handler = CORS(corsOrigins)(handler)
	return handler
}

type pageData struct {
	State      session.State
	Deals      []deal.Deal
	Countries  []string
	Modes      []deal.Mode
	SortOrders []deal.SortOrder
	Categories []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.detectOnce.Do(func() {
		current := s.store.State().Location
		if detected := locale.Detect(r.Header.Get("Accept-Language"), current); detected != current {
			s.store.Dispatch(session.SetLocation{Location: detected})
			s.log.Info().Str("location", detected).Msg("Location detected from browser")
		}
	})

	st := s.store.State()
	data := pageData{
		State:      st,
		Deals:      sorter.Sort(st.Results, st.SortOrder),
		Countries:  locale.Countries,
		Modes:      deal.Modes,
		SortOrders: deal.SortOrders,
		Categories: deal.Categories,
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.log.Error().Err(err).Msg("Failed to render page")
		RespondError(w, http.StatusInternalServerError, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.FormValue("q")
	if strings.TrimSpace(query) == "" {
		redirectHome(w, r)
		return
	}

	mode := s.store.State().Mode
	if raw := r.FormValue("mode"); raw != "" {
		parsed, err := deal.ParseMode(raw)
		if err != nil {
			RespondValidationError(w, map[string]string{"mode": err.Error()})
			return
		}
		mode = parsed
	}

	s.store.Dispatch(session.SetQuery{Query: query})
	s.store.Search(r.Context(), query, mode)
	redirectHome(w, r)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	mode, err := deal.ParseMode(r.FormValue("mode"))
	if err != nil {
		RespondValidationError(w, map[string]string{"mode": err.Error()})
		return
	}

	s.store.SelectMode(r.Context(), mode)
	redirectHome(w, r)
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	order, err := deal.ParseSortOrder(r.FormValue("sort"))
	if err != nil {
		RespondValidationError(w, map[string]string{"sort": err.Error()})
		return
	}

	s.store.Dispatch(session.SetSortOrder{Order: order})
	redirectHome(w, r)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	location := r.FormValue("location")
	if !locale.IsSupported(location) {
		RespondValidationError(w, map[string]string{"location": "must be one of the supported countries"})
		return
	}

	s.store.Dispatch(session.SetLocation{Location: location})
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
