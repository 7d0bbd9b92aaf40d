package demoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/five82/backer/internal/platform"
)

type listEnvelope struct {
	Results []record `json:"results"`
	Count   int      `json:"count"`
}

// filtered returns clones of the rows of t matching values, ordered.
func filtered(t *table, values url.Values) []record {
	out := make([]record, 0, len(t.rows))
	for _, r := range t.rows {
		if matches(r, values) {
			out = append(out, r.clone())
		}
	}
	order(out, values.Get("ordering"))
	return out
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	s.mu.Lock()
	res, t, err := s.tableFor(r)
	if err != nil {
		s.mu.Unlock()
		writeErr(w, err)
		return
	}
	rows := filtered(t, values)
	s.mu.Unlock()

	// Categories are small enough to be served unpaginated.
	if res == platform.Categories {
		writeJSON(w, http.StatusOK, rows)
		return
	}
	page, err := paginate(rows, values)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listEnvelope{Results: page, Count: len(rows)})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	res, t, err := s.tableFor(r)
	if err != nil {
		s.mu.Unlock()
		writeErr(w, err)
		return
	}
	rows := filtered(t, r.URL.Query())
	s.mu.Unlock()

	data, err := encodeCSV(rows)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(res)+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t, err := s.tableFor(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	row, err := lookup(t, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row.clone())
}

func lookup(t *table, rawID string) (record, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	_, row := t.find(id)
	if row == nil {
		return nil, errStatus(http.StatusNotFound, "not found")
	}
	return row, nil
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.mu.Lock()
	row, err := s.patchLocked(r, body)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	s.bumpUnread()
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) patchLocked(r *http.Request, body map[string]any) (record, error) {
	res, t, err := s.tableFor(r)
	if err != nil {
		return nil, err
	}
	if err := writable(res); err != nil {
		return nil, err
	}
	row, err := lookup(t, chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if role, ok := body["role"].(string); ok && !slices.Contains(validRoles, role) {
		return nil, errStatus(http.StatusBadRequest, "invalid role %q", role)
	}
	for k, v := range body {
		if k != "id" {
			row[k] = v
		}
	}
	actionType := "update"
	if _, ok := body["role"]; ok {
		actionType = "role"
	} else if _, ok := body["is_active"]; ok {
		actionType = "activate"
	}
	s.logAction(actionType, res, row)
	return row.clone(), nil
}

var validRoles = []string{"donor", "volunteer", "organizer", "admin"}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.removeLocked(r)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	s.bumpUnread()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeLocked(r *http.Request) error {
	res, t, err := s.tableFor(r)
	if err != nil {
		return err
	}
	if err := writable(res); err != nil {
		return err
	}
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	i, row := t.find(id)
	if row == nil {
		return errStatus(http.StatusNotFound, "not found")
	}
	t.rows = slices.Delete(t.rows, i, i+1)
	if res == platform.Campaigns {
		s.favorites = slices.DeleteFunc(s.favorites, func(f int64) bool { return f == id })
	}
	s.logAction("delete", res, row)
	return nil
}

// mutation changes a record in place or explains why it cannot.
type mutation func(record) error

func setField(field string, value any) mutation {
	return func(r record) error {
		r[field] = value
		return nil
	}
}

func unless(field string, value any, message string, m mutation) mutation {
	return func(r record) error {
		if r[field] == value {
			return errStatus(http.StatusBadRequest, "%s", message)
		}
		return m(r)
	}
}

var itemActions = map[platform.Resource]map[string]mutation{
	platform.Campaigns: {
		"feature":   setField("featured", true),
		"unfeature": setField("featured", false),
	},
	platform.Organizations: {
		"verify": unless("is_verified", true, "organization is already verified", func(r record) error {
			r["is_verified"] = true
			r["status"] = "approved"
			return nil
		}),
		"reject": unless("status", "rejected", "organization is already rejected", setField("status", "rejected")),
	},
	platform.Users: {
		"suspend":  setField("is_active", false),
		"activate": setField("is_active", true),
	},
	platform.Transactions: {
		"flag":   unless("flagged", true, "transaction is already flagged", setField("flagged", true)),
		"revoke": unless("status", "revoked", "transaction is already revoked", setField("status", "revoked")),
	},
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	row, err := s.actionLocked(r)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	s.bumpUnread()
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) actionLocked(r *http.Request) (record, error) {
	res, t, err := s.tableFor(r)
	if err != nil {
		return nil, err
	}
	name := chi.URLParam(r, "action")
	m, ok := itemActions[res][name]
	if !ok {
		return nil, errStatus(http.StatusNotFound, "unknown action %q", name)
	}
	row, err := lookup(t, chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if err := m(row); err != nil {
		return nil, err
	}
	s.logAction(name, res, row)
	return row.clone(), nil
}

type bulkResponse struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed"`
}

func (s *Server) bulk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []any `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if len(body.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	s.mu.Lock()
	resp, err := s.bulkLocked(r, body.IDs)
	s.mu.Unlock()
	if err != nil {
		writeErr(w, err)
		return
	}
	if resp.Updated > 0 {
		s.bumpUnread()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) bulkLocked(r *http.Request, ids []any) (bulkResponse, error) {
	res, t, err := s.tableFor(r)
	if err != nil {
		return bulkResponse{}, err
	}
	name := chi.URLParam(r, "id")
	m, ok := itemActions[res][strings.TrimPrefix(name, "bulk_")]
	if !strings.HasPrefix(name, "bulk_") || !ok {
		return bulkResponse{}, errStatus(http.StatusNotFound, "unknown bulk action %q", name)
	}

	resp := bulkResponse{Failed: []string{}}
	for _, raw := range ids {
		key := display(raw)
		row, err := lookup(t, key)
		if err == nil {
			err = m(row)
		}
		if err != nil {
			resp.Failed = append(resp.Failed, key)
			continue
		}
		resp.Updated++
		s.logAction(strings.TrimPrefix(name, "bulk_"), res, row)
	}
	return resp, nil
}

func (s *Server) statistics(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{}
	count := func(res platform.Resource, pred func(record) bool) int {
		n := 0
		for _, r := range s.tables[res].rows {
			if pred(r) {
				n++
			}
		}
		return n
	}
	all := func(record) bool { return true }

	stats["total_campaigns"] = len(s.tables[platform.Campaigns].rows)
	stats["active_campaigns"] = count(platform.Campaigns, func(r record) bool { return r["status"] == "active" })
	stats["featured_campaigns"] = count(platform.Campaigns, func(r record) bool { return r["featured"] == true })
	stats["total_organizations"] = count(platform.Organizations, all)
	stats["pending_organizations"] = count(platform.Organizations, func(r record) bool { return r["status"] == "pending" })
	stats["total_users"] = count(platform.Users, all)
	stats["suspended_users"] = count(platform.Users, func(r record) bool { return r["is_active"] == false })
	stats["flagged_transactions"] = count(platform.Transactions, func(r record) bool { return r["flagged"] == true })

	var raised float64
	for _, r := range s.tables[platform.Transactions].rows {
		if r["status"] == "completed" {
			if n, ok := number(r["amount"]); ok {
				raised += n
			}
		}
	}
	stats["total_raised"] = raised
	writeJSON(w, http.StatusOK, stats)
}

// favoriteRows returns the favorited campaigns in favorite order. Callers hold s.mu.
func (s *Server) favoriteRows() []record {
	camps := s.tables[platform.Campaigns]
	out := make([]record, 0, len(s.favorites))
	for _, id := range s.favorites {
		if _, row := camps.find(id); row != nil {
			out = append(out, row.clone())
		}
	}
	return out
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	offset, err := nonNegative(values.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := nonNegative(values.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	s.mu.Lock()
	rows := s.favoriteRows()
	s.mu.Unlock()

	window := []record{}
	if offset < len(rows) {
		end := len(rows)
		if limit > 0 {
			end = min(offset+limit, len(rows))
		}
		window = rows[offset:end]
	}
	writeJSON(w, http.StatusOK, listEnvelope{Results: window, Count: len(rows)})
}

func nonNegative(raw string, fallback int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", raw)
	}
	return n, nil
}

func (s *Server) countFavorites(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	n := len(s.favoriteRows())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Campaign any `json:"campaign"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, err := parseID(display(body.Campaign))
	if err != nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, row := s.tables[platform.Campaigns].find(id); row == nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	favorited := !slices.Contains(s.favorites, id)
	if favorited {
		s.favorites = append(s.favorites, id)
	} else {
		s.favorites = slices.DeleteFunc(s.favorites, func(f int64) bool { return f == id })
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}
