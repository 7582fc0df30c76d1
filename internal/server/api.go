package server

import (
	"net/http"
	"strings"

	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/locale"
	"ofertaglobal/dealfinder/internal/session"
	"ofertaglobal/dealfinder/internal/sorter"
	"ofertaglobal/dealfinder/pkg/errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const maxQueryLength = 200

// dealsRequest holds the normalized query parameters of GET /api/deals
type dealsRequest struct {
	Query    string `json:"q"`
	Location string `json:"location"`
	Mode     string `json:"mode"`
	Sort     string `json:"sort"`
}

// DealsResponse is the body of a stateless search
type DealsResponse struct {
	Query    string                 `json:"query"`
	Location string                 `json:"location"`
	Mode     deal.Mode              `json:"mode"`
	Sort     deal.SortOrder         `json:"sort"`
	Results  []deal.Deal            `json:"results"`
	Sources  []deal.GroundingSource `json:"sources"`
	Error    string                 `json:"error,omitempty"`
}

func parseDealsRequest(r *http.Request) dealsRequest {
	q := r.URL.Query()
	return dealsRequest{
		Query:    strings.TrimSpace(q.Get("q")),
		Location: strings.TrimSpace(q.Get("location")),
		Mode:     strings.ToUpper(strings.TrimSpace(q.Get("mode"))),
		Sort:     strings.ToUpper(strings.TrimSpace(q.Get("sort"))),
	}
}

func (req *dealsRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Query,
			validation.Required.Error("query is required"),
			validation.RuneLength(1, maxQueryLength),
		),
		validation.Field(&req.Location, validation.In(toInterfaces(locale.Countries)...)),
		validation.Field(&req.Mode, validation.In(
			string(deal.ModeRetail), string(deal.ModeWholesale), string(deal.ModeCoupons),
		)),
		validation.Field(&req.Sort, validation.In(
			string(deal.SortRelevance), string(deal.SortPriceLow), string(deal.SortPriceHigh),
		)),
	)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	if errs, ok := err.(validation.Errors); ok {
		for name, fieldErr := range errs {
			fields[name] = fieldErr.Error()
		}
	}
	return fields
}

// handleAPIDeals runs a search without touching the session
func (s *Server) handleAPIDeals(w http.ResponseWriter, r *http.Request) {
	req := parseDealsRequest(r)
	if err := req.Validate(); err != nil {
		s.log.Info().
			Err(errors.NewValidation("api", err.Error())).
			Str("query", req.Query).
			Msg("Rejected deals request")
		RespondValidationError(w, validationFields(err))
		return
	}

	resp := DealsResponse{
		Query:    req.Query,
		Location: req.Location,
		Mode:     deal.Mode(req.Mode),
		Sort:     deal.SortOrder(req.Sort),
	}
	if resp.Location == "" {
		resp.Location = s.store.State().Location
	}
	if resp.Mode == "" {
		resp.Mode = deal.ModeRetail
	}
	if resp.Sort == "" {
		resp.Sort = deal.SortRelevance
	}

	result := s.searcher.Search(r.Context(), resp.Query, resp.Location, resp.Mode)
	resp.Results = sorter.Sort(result.Results, resp.Sort)
	resp.Sources = result.Sources

	switch {
	case result.Failed:
		resp.Error = session.MessageFailed
	case len(result.Results) == 0:
		resp.Error = session.MessageNoResults
	}

	RespondJSON(w, http.StatusOK, resp)
}

// handleAPIState returns the session with results in display order
func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	st := s.store.State()
	st.Results = sorter.Sort(st.Results, st.SortOrder)
	RespondJSON(w, http.StatusOK, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
