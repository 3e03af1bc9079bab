// Package httpapi serves the read-only review surface: available dates, the
// picking list for a date, its summary and the orders behind it.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"picklist/internal/calendar"
	"picklist/internal/export"
	"picklist/internal/metrics"
	"picklist/internal/model"
	"picklist/internal/picking"
	"picklist/internal/source"
)

// Now is the clock used to name CSV downloads.
var Now = time.Now

type Server struct {
	data source.Dataset
	gen  *picking.Generator
	reg  *metrics.Registry
	log  *slog.Logger
}

// NewServer serves ds. reg may be nil, in which case /metrics is not mounted
// and runs are not recorded.
func NewServer(ds source.Dataset, reg *metrics.Registry, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	var obs picking.Observer
	if reg != nil {
		obs = reg
	}
	return &Server{data: ds, gen: picking.NewGenerator(log, obs), reg: reg, log: log}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/dates", s.dates)
	r.Get("/picking-list", s.pickingList)
	r.Get("/picking-list.csv", s.pickingListCSV)
	r.Get("/summary", s.summary)
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", s.orders)
		r.Get("/{id}", s.order)
	})
	if s.reg != nil {
		r.Handle("/metrics", s.reg.Handler())
	}
	return r
}

type dateEntry struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

type pickingListResponse struct {
	Date        string              `json:"date"`
	DisplayDate string              `json:"displayDate"`
	Items       []model.PickingItem `json:"items"`
}

type summaryResponse struct {
	Date string `json:"date"`
	model.Summary
	TotalGiftBoxes int `json:"totalGiftBoxes"`
}

type ordersResponse struct {
	Date   string        `json:"date"`
	Orders []model.Order `json:"orders"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dates(w http.ResponseWriter, _ *http.Request) {
	ds := picking.AvailableDates(s.data.Orders)
	out := make([]dateEntry, 0, len(ds))
	for _, d := range ds {
		out = append(out, dateEntry{Date: d, Label: calendar.DisplayDate(d)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": out})
}

// resolveDate returns the requested date, or the most recent date with orders
// when none is given. It is empty when there are no orders at all.
func (s *Server) resolveDate(r *http.Request) (string, error) {
	d := r.URL.Query().Get("date")
	if d == "" {
		if ds := picking.AvailableDates(s.data.Orders); len(ds) > 0 {
			return ds[0], nil
		}
		return "", nil
	}
	if _, err := calendar.ParseDate(d); err != nil {
		return "", err
	}
	return d, nil
}

func parseSort(r *http.Request) (export.SortConfig, error) {
	q := r.URL.Query()
	key, err := export.ParseSortKey(q.Get("sort"))
	if err != nil {
		return export.SortConfig{}, err
	}
	cfg := export.SortConfig{Key: key}
	switch q.Get("dir") {
	case "", "asc":
	case "desc":
		cfg.Desc = true
	default:
		return export.SortConfig{}, fmt.Errorf("dir %q: want asc|desc", q.Get("dir"))
	}
	return cfg, nil
}

// generate builds the sorted picking list for the request.
func (s *Server) generate(r *http.Request) (string, []model.PickingItem, error) {
	date, err := s.resolveDate(r)
	if err != nil {
		return "", nil, err
	}
	sc, err := parseSort(r)
	if err != nil {
		return "", nil, err
	}
	start := time.Now()
	items := s.gen.GeneratePickingList(s.data.Orders, date, s.data.Mappings)
	if s.reg != nil {
		s.reg.ObserveRun(len(picking.FilterByDate(s.data.Orders, date)), len(items), time.Since(start).Seconds())
	}
	return date, export.Sort(items, sc), nil
}

func (s *Server) pickingList(w http.ResponseWriter, r *http.Request) {
	date, items, err := s.generate(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pickingListResponse{Date: date, DisplayDate: calendar.DisplayDate(date), Items: items})
}

func (s *Server) pickingListCSV(w http.ResponseWriter, r *http.Request) {
	var opts export.CSVOptions
	if q := r.URL.Query().Get("quote"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			badRequest(w, fmt.Errorf("quote %q: %w", q, err))
			return
		}
		opts.Quote = b
	}
	_, items, err := s.generate(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(Now())))
	if err := export.WriteCSV(w, items, opts); err != nil {
		s.log.Error("failed to write csv", slog.Any("error", err), slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	date, err := s.resolveDate(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	sum := picking.Summarize(s.data.Orders, date)
	writeJSON(w, http.StatusOK, summaryResponse{Date: date, Summary: sum, TotalGiftBoxes: sum.TotalGiftBoxes()})
}

func (s *Server) orders(w http.ResponseWriter, r *http.Request) {
	date, err := s.resolveDate(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	orders := picking.FilterByDate(s.data.Orders, date)
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, ordersResponse{Date: date, Orders: orders})
}

func (s *Server) order(w http.ResponseWriter, r *http.Request) {
	date, err := s.resolveDate(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	o, ok := picking.FindOrder(s.data.Orders, date, chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func badRequest(w http.ResponseWriter, err error) {
	msg := err.Error()
	if errors.Is(err, calendar.ErrInvalidDate) {
		msg = "invalid date, want YYYY-MM-DD"
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
