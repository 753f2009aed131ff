// Package repositorytest provides an in-memory PostgREST stand-in for tests.
package repositorytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ServiceKey is the credential the fake server accepts.
const ServiceKey = "test-service-role-key"

// createdAtLayout sorts lexicographically in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000Z07:00"

type row map[string]any

type fault struct {
	method string
	table  string
	status int
}

// Server serves /rest/v1/{profiles,chats,messages} from memory. Messages
// reference chats the way a foreign key would: inserting into a missing chat
// fails with 409.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]row
	requests map[string]int
	faults   []fault
	clock    time.Time
}

func NewServer() *Server {
	s := &Server{
		tables: map[string][]row{
			"profiles": {},
			"chats":    {},
			"messages": {},
		},
		requests: map[string]int{},
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// RESTEndpoint is the value to hand to repository.NewClient.
func (s *Server) RESTEndpoint() string {
	return s.URL + "/rest/v1"
}

// FailNext makes the next request matching method and table answer status.
func (s *Server) FailNext(method, table string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, table: table, status: status})
}

// Requests counts requests seen for "METHOD table".
func (s *Server) Requests(method, table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+table]
}

// Mutations counts every non-GET request.
func (s *Server) Mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.requests {
		if !strings.HasPrefix(k, http.MethodGet+" ") {
			n += v
		}
	}
	return n
}

// Rows returns a copy of the table contents.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		cp := map[string]any{}
		for k, v := range r {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Seed inserts a row directly, bypassing request accounting.
func (s *Server) Seed(table string, values map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.prepare(table, values)
	s.tables[table] = append(s.tables[table], r)
	return r
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != ServiceKey || r.Header.Get("Authorization") != "Bearer "+ServiceKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
		return
	}

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "relation does not exist"})
		return
	}
	s.requests[r.Method+" "+table]++

	for i, f := range s.faults {
		if f.method == r.Method && f.table == table {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			writeJSON(w, f.status, map[string]string{"message": "injected failure"})
			return
		}
	}

	filters := map[string]string{}
	order := ""
	for key, vals := range r.URL.Query() {
		switch key {
		case "select":
		case "order":
			order = vals[0]
		default:
			filters[key] = strings.TrimPrefix(vals[0], "eq.")
		}
	}

	switch r.Method {
	case http.MethodGet:
		rows := s.match(table, filters)
		sortRows(rows, order)
		writeJSON(w, http.StatusOK, rows)

	case http.MethodPost:
		var values map[string]any
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		if table == "messages" && len(s.match("chats", map[string]string{"id": fmt.Sprint(values["chat_id"])})) == 0 {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "violates foreign key constraint"})
			return
		}
		created := s.prepare(table, values)
		s.tables[table] = append(s.tables[table], created)
		writeJSON(w, http.StatusCreated, []row{created})

	case http.MethodPatch:
		var values map[string]any
		if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		for _, existing := range s.tables[table] {
			if matches(existing, filters) {
				for k, v := range values {
					existing[k] = v
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if table == "chats" {
			for _, chat := range s.match("chats", filters) {
				if len(s.match("messages", map[string]string{"chat_id": fmt.Sprint(chat["id"])})) > 0 {
					writeJSON(w, http.StatusConflict, map[string]string{"message": "violates foreign key constraint"})
					return
				}
			}
		}
		kept := []row{}
		for _, existing := range s.tables[table] {
			if !matches(existing, filters) {
				kept = append(kept, existing)
			}
		}
		s.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) prepare(table string, values map[string]any) row {
	r := row{}
	for k, v := range values {
		r[k] = v
	}
	if _, ok := r["id"]; !ok {
		r["id"] = uuid.NewString()
	}
	if table != "profiles" {
		if _, ok := r["created_at"]; !ok {
			s.clock = s.clock.Add(time.Millisecond)
			r["created_at"] = s.clock.Format(createdAtLayout)
		}
	}
	return r
}

func (s *Server) match(table string, filters map[string]string) []row {
	out := []row{}
	for _, r := range s.tables[table] {
		if matches(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r row, filters map[string]string) bool {
	for k, v := range filters {
		if fmt.Sprint(r[k]) != v {
			return false
		}
	}
	return true
}

func sortRows(rows []row, order string) {
	if order == "" {
		return
	}
	col, rest, _ := strings.Cut(order, ".")
	dir, _, _ := strings.Cut(rest, ".")
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := fmt.Sprint(rows[i][col]), fmt.Sprint(rows[j][col])
		if dir == "desc" {
			return a > b
		}
		return a < b
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
