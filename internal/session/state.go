package session

import (
	"ofertaglobal/dealfinder/internal/deal"
	"ofertaglobal/dealfinder/internal/locale"
)

// User-facing messages
const (
	MessageNoResults = "No se encontraron ofertas. Intenta con otros términos."
	MessageFailed    = "Hubo un error al buscar. Intenta nuevamente."
)

// State is everything the page shows. It is never persisted.
type State struct {
	Query      string                 `json:"query"`
	Location   string                 `json:"location"`
	Mode       deal.Mode              `json:"mode"`
	SortOrder  deal.SortOrder         `json:"sortOrder"`
	Loading    bool                   `json:"loading"`
	Results    []deal.Deal            `json:"results"`
	Sources    []deal.GroundingSource `json:"sources"`
	Error      string                 `json:"error,omitempty"`
	Generation uint64                 `json:"generation"`
}

// Initial returns the state a session starts with
func Initial(location string) State {
	if location == "" {
		location = locale.DefaultCountry
	}
	return State{
		Location:  location,
		Mode:      deal.ModeRetail,
		SortOrder: deal.SortRelevance,
		Results:   []deal.Deal{},
		Sources:   []deal.GroundingSource{},
	}
}

// Action is a state transition
type Action interface {
	apply(s State) State
}

// SetQuery updates the search box text
type SetQuery struct{ Query string }

// SetLocation changes the country and clears the previous results
type SetLocation struct{ Location string }

// SetMode switches the active tab
type SetMode struct{ Mode deal.Mode }

// SetSortOrder changes how results are ordered
type SetSortOrder struct{ Order deal.SortOrder }

// SearchStarted marks a search as issued
type SearchStarted struct {
	Query      string
	Mode       deal.Mode
	Generation uint64
}

// SearchSucceeded delivers a non-empty result set
type SearchSucceeded struct {
	Generation uint64
	Results    []deal.Deal
	Sources    []deal.GroundingSource
}

// SearchEmpty reports a search that found nothing
type SearchEmpty struct{ Generation uint64 }

// SearchFailed reports a search the provider could not serve
type SearchFailed struct{ Generation uint64 }

func (a SetQuery) apply(s State) State {
	s.Query = a.Query
	return s
}

func (a SetLocation) apply(s State) State {
	s.Location = a.Location
	s.Results = []deal.Deal{}
	return s
}

func (a SetMode) apply(s State) State {
	s.Mode = a.Mode
	return s
}

func (a SetSortOrder) apply(s State) State {
	s.SortOrder = a.Order
	return s
}

func (a SearchStarted) apply(s State) State {
	s.Loading = true
	s.Error = ""
	s.Query = a.Query
	s.Mode = a.Mode
	if a.Generation > s.Generation {
		s.Generation = a.Generation
	}
	return s
}

func (a SearchSucceeded) apply(s State) State {
	s.Loading = false
	s.Results = a.Results
	s.Sources = a.Sources
	return s
}

// Previous results stay visible under the error.
func (a SearchEmpty) apply(s State) State {
	s.Loading = false
	s.Error = MessageNoResults
	return s
}

func (a SearchFailed) apply(s State) State {
	s.Loading = false
	s.Error = MessageFailed
	return s
}

// Reduce applies action to s and returns the new state. It does not modify s.
func Reduce(s State, action Action) State {
	if action == nil {
		return s
	}
	return action.apply(s)
}
