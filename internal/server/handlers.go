package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"samfdw/internal/cell"
	"samfdw/internal/connector"
	"samfdw/internal/datasource/httpds"
	"samfdw/internal/mapping"
	"samfdw/internal/parser/csv"
	"samfdw/internal/scan"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps scan failures onto HTTP statuses. Upstream and schema drift
// problems are the extract host's fault, not the caller's.
func statusFor(err error) int {
	var se *httpds.StatusError
	var pe *csv.ParseError
	switch {
	case errors.Is(err, mapping.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, mapping.ErrMissingHeader),
		errors.Is(err, csv.ErrNoHeader),
		errors.As(err, &se),
		errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Health())
}

func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Headers(r.Context())
	if err != nil {
		s.logger(r).Error("headers failed", "err", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// parseRowsQuery reads ?columns=a,b and ?limit=n. Unknown columns are
// rejected up front so no partial body is ever written for them.
func parseRowsQuery(r *http.Request) (fields []string, limit int, err error) {
	q := r.URL.Query()
	fields, err = ParseColumns(q.Get("columns"))
	if err != nil {
		return nil, 0, err
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, 0, fmt.Errorf("limit must be a non-negative integer: %q", raw)
		}
	}
	return fields, limit, nil
}

// handleRows streams one full begin/iterate/end cycle as NDJSON.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	fields, limit, err := parseRowsQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log := s.logger(r)

	_ = s.withConn(func(c *connector.Connector) error {
		if err := c.BeginScan(r.Context()); err != nil {
			log.Error("begin scan failed", "err", err)
			writeError(w, statusFor(err), err.Error())
			return err
		}
		defer c.EndScan()

		enc := json.NewEncoder(w)
		started := false
		start := func() {
			if started {
				return
			}
			started = true
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("X-Session-Id", c.Session().ID())
			w.WriteHeader(http.StatusOK)
		}

		for n := 0; limit == 0 || n < limit; {
			if err := r.Context().Err(); err != nil {
				return err
			}
			res, err := c.IterScan(fields)
			if err != nil {
				log.Error("iterate scan failed", "err", err, "rows", n)
				if !started {
					writeError(w, statusFor(err), err.Error())
				}
				return err
			}
			if res.Outcome == scan.OutcomeDone {
				break
			}
			if res.Outcome == scan.OutcomeSkip {
				continue
			}
			start()
			if err := enc.Encode(rowObject(fields, res.Row)); err != nil {
				return err
			}
			n++
		}
		start()
		return nil
	})
}

func rowObject(fields []string, row cell.Row) map[string]any {
	obj := make(map[string]any, len(fields))
	for i, f := range fields {
		obj[f] = cell.JSON(row[i])
	}
	return obj
}

func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Rescan(r.Context())
	if err != nil {
		s.logger(r).Error("rescan failed", "err", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresh(); err != nil {
		s.logger(r).Error("refresh failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.handleHealth(w, r)
}

// handleModify surfaces the connector's refusal to modify the extract.
func (s *Server) handleModify(w http.ResponseWriter, _ *http.Request) {
	err := s.withConn(func(c *connector.Connector) error { return c.BeginModify() })
	if err == nil {
		err = errors.New("modify unexpectedly accepted")
	}
	w.Header().Set("Allow", http.MethodGet)
	writeError(w, http.StatusMethodNotAllowed, err.Error())
}
