package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/pipeline"
	"github.com/matzehuels/widetable/pkg/storage"
)

// maxRequestBody bounds POST /v1/reports bodies.
const maxRequestBody = 1 << 20

func (s *Server) registerReports(r chi.Router) {
	r.Get("/reports", s.handleListReports)
	r.Post("/reports", s.handleCreateReport)
	r.Get("/reports/{id}", s.handleGetReport)
	r.Delete("/reports/{id}", s.handleDeleteReport)
}

// reportRequest selects the views and sizes of a new report. Zero fields
// fall back to the server's options; the source and year range are fixed
// by the loaded dataset.
type reportRequest struct {
	Views           []string `json:"views"`
	TopN            int      `json:"top_n"`
	DecadeTop       int      `json:"decade_top"`
	Bins            int      `json:"bins"`
	Thresholds      int      `json:"thresholds"`
	BubbleCountries []string `json:"bubble_countries"`
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", storage.DefaultListLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.store.ListReports(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*storage.Snapshot{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateReport builds a report over the loaded dataset and stores
// it. The response is the stored snapshot.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	opts := pipeline.Options{
		Source:          s.opts.Source,
		Sheet:           s.opts.Sheet,
		SkipRows:        s.opts.SkipRows,
		SkipFooter:      s.opts.SkipFooter,
		FirstYear:       s.opts.FirstYear,
		LastYear:        s.opts.LastYear,
		Drop:            s.opts.Drop,
		Rename:          s.opts.Rename,
		Duplicates:      s.opts.Duplicates,
		Views:           req.Views,
		TopN:            or(req.TopN, s.opts.TopN),
		DecadeTop:       or(req.DecadeTop, s.opts.DecadeTop),
		Bins:            or(req.Bins, s.opts.Bins),
		Thresholds:      or(req.Thresholds, s.opts.Thresholds),
		BubbleCountries: req.BubbleCountries,
	}
	if opts.BubbleCountries == nil {
		opts.BubbleCountries = s.opts.BubbleCountries
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	rep, err := s.runner.Report(r.Context(), s.ds, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	snap := storage.NewSnapshot(s.ds.Source, s.ds.SourceHash, opts.Views, nil)
	rep.RunID = snap.ID
	body, err := json.Marshal(rep)
	if err != nil {
		writeError(w, err)
		return
	}
	snap.Report = body
	if err := s.store.SaveReport(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("stored report", "id", snap.ID, "views", len(opts.Views))
	w.Header().Set("Location", "/v1/reports/"+snap.ID)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := storage.ValidateID(id); err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, snap.Report)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := storage.ValidateID(id); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteReport(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func or(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
