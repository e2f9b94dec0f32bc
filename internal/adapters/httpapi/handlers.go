package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"semcache/internal/application"
	"semcache/internal/application/commands"
	"semcache/internal/domain"
)

// queryBody is the JSON form of a query request
type queryBody struct {
	Conditions string   `json:"conditions"`
	Printouts  []string `json:"printouts"`
	Limit      *int     `json:"limit"`
	Offset     int      `json:"offset"`
	Sort       string   `json:"sort"`
	Order      string   `json:"order"`
	Context    string   `json:"context"`
	NoCache    bool     `json:"noCache"`
	Facets     bool     `json:"facets"`
	Journal    bool     `json:"journal"`
	Highlight  []string `json:"highlight"`
}

func (b queryBody) request() commands.QueryRequest {
	limit := domain.DefaultLimit
	if b.Limit != nil {
		limit = *b.Limit
	}
	return commands.QueryRequest{
		Conditions: b.Conditions,
		Printouts:  b.Printouts,
		Limit:      limit,
		Offset:     b.Offset,
		Sort:       b.Sort,
		Order:      b.Order,
		Context:    b.Context,
		NoCache:    b.NoCache,
		Source:     domain.ContextHTTP,
		Facets:     b.Facets,
		Journal:    b.Journal,
		Highlight:  b.Highlight,
	}
}

type invalidateBody struct {
	Entities []string `json:"entities"`
	Reason   string   `json:"reason"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	rt.runQuery(w, r, body.request())
}

// queryFromURL accepts conditions, printout (repeatable), limit, offset,
// sort, order and context as URL parameters
func (rt *Router) queryFromURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body := queryBody{
		Conditions: q.Get("conditions"),
		Printouts:  q["printout"],
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
		Context:    q.Get("context"),
		NoCache:    q.Has("nocache"),
		Facets:     q.Has("facets"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		body.Limit = &n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "offset must be an integer")
			return
		}
		body.Offset = n
	}
	rt.runQuery(w, r, body.request())
}

func (rt *Router) runQuery(w http.ResponseWriter, r *http.Request, req commands.QueryRequest) {
	res, err := commands.NewQueryCommand(rt.cache, rt.data, rt.logger, req).Execute(r.Context())
	if err != nil {
		rt.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (rt *Router) invalidate(w http.ResponseWriter, r *http.Request) {
	var body invalidateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	res, err := commands.NewInvalidateCommand(rt.cache, body.Entities, body.Reason).Execute(r.Context())
	if err != nil {
		rt.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	snap, err := commands.NewStatsCommand(rt.cache).Execute(r.Context())
	if err != nil {
		rt.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (rt *Router) sync(w http.ResponseWriter, r *http.Request) {
	if rt.index == nil {
		respondError(w, http.StatusServiceUnavailable, "no page index configured")
		return
	}
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
	res, err := commands.NewSyncCommand(rt.index, rt.cache, rt.logger, full).Execute(r.Context())
	if err != nil {
		rt.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// fail maps command errors to status codes
func (rt *Router) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidQuery):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrEngineNotConfigured):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		rt.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}
