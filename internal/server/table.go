package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/series"
)

func (s *Server) registerTable(r chi.Router) {
	r.Get("/countries", s.handleCountries)
	r.Get("/countries/{name}", s.handleCountry)
	r.Get("/continents", s.handleContinents)
	r.Get("/top", s.handleTop)
	r.Get("/decades", s.handleDecades)
	r.Get("/totals", s.handleTotals)
	r.Get("/histogram", s.handleHistogram)
	r.Get("/thresholds", s.handleThresholds)
}

// countryDetail is one country's metadata and yearly series.
type countryDetail struct {
	Country   string        `json:"country"`
	Continent string        `json:"continent"`
	Region    string        `json:"region"`
	Total     int64         `json:"total"`
	Series    series.Series `json:"series"`
}

// handleCountries returns the whole table, optionally filtered by exact
// continent and region.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	df := s.ds.Table
	var preds []frame.Predicate
	q := r.URL.Query()
	if c := q.Get("continent"); c != "" {
		preds = append(preds, frame.Eq(frame.ColContinent, frame.Text(c)))
	}
	if reg := q.Get("region"); reg != "" {
		preds = append(preds, frame.Eq(frame.ColRegion, frame.Text(reg)))
	}
	if len(preds) > 0 {
		df = frame.SelectRows(df, frame.And(preds...))
	}
	writeJSON(w, http.StatusOK, df)
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	row, ok := s.ds.Table.Lookup(name)
	if !ok {
		writeError(w, errs.RowNotFound(name))
		return
	}
	ser, err := frame.RowSeries(s.ds.Table, name, s.opts.Years())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countryDetail{
		Country:   name,
		Continent: row.Get(frame.ColContinent).Str(),
		Region:    row.Get(frame.ColRegion).Str(),
		Total:     row.Get(frame.ColTotal).Int(),
		Series:    ser,
	})
}

func (s *Server) handleContinents(w http.ResponseWriter, r *http.Request) {
	t, err := pipeline.ContinentsView(s.ds.Table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleTop ranks countries by a column, Total unless by is given.
// order=asc returns the bottom of the ranking instead.
func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", s.opts.TopN)
	if err != nil {
		writeError(w, err)
		return
	}
	by := r.URL.Query().Get("by")
	if by == "" {
		by = frame.ColTotal
	}
	var t *frame.Table
	switch order := r.URL.Query().Get("order"); order {
	case "", "desc":
		t, err = frame.TopN(s.ds.Table, by, n)
	case "asc":
		t, err = frame.BottomN(s.ds.Table, by, n)
	default:
		err = errs.New(errs.ErrCodeInvalidInput, "order must be asc or desc, got %q", order)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDecades(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", s.opts.DecadeTop)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := pipeline.DecadesView(s.ds.Table, n, s.opts.FirstYear, s.opts.LastYear)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleTotals sums every country per year, or only those named in the
// comma-separated countries parameter.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	v, err := pipeline.TotalsOf(s.ds.Table, listParam(r, "countries"), s.opts.Years())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleHistogram bins one year's per-country counts. With countries it
// bins those countries' yearly counts instead, 15 bins unless bins is given.
func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	countries := listParam(r, "countries")
	def := s.opts.Bins
	if countries != nil {
		def = pipeline.DefaultCountryBins
	}
	bins, err := intParam(r, "bins", def)
	if err != nil {
		writeError(w, err)
		return
	}
	if countries != nil {
		v, err := pipeline.CountryHistogram(s.ds.Table, countries, s.opts.Years(), bins)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
		return
	}
	year := r.URL.Query().Get("year")
	if year == "" {
		year = strconv.Itoa(s.opts.LastYear)
	}
	v, err := pipeline.HistogramOf(s.ds.Table, year, bins)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", s.opts.Thresholds)
	if err != nil {
		writeError(w, err)
		return
	}
	th, err := pipeline.ThresholdsOf(s.ds.Table, n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, th)
}
