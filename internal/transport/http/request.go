package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alxtravel/travel-api/internal/domain"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return false
	}
	return true
}

// requestActor returns the actor placed by Authenticator.Require. Routes that
// reach a handler without one are misconfigured, so they answer 401.
func requestActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
	}
	return actor, ok
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(value), time.UTC)
}

// queryReader collects the first query parsing error so handlers can check once.
type queryReader struct {
	values url.Values
	err    error
}

func newQueryReader(r *http.Request) *queryReader {
	return &queryReader{values: r.URL.Query()}
}

func (q *queryReader) str(key string) string {
	return strings.TrimSpace(q.values.Get(key))
}

func (q *queryReader) integer(key string) int {
	v := q.str(key)
	if v == "" || q.err != nil {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		q.err = fmt.Errorf("%s must be a non-negative integer", key)
		return 0
	}
	return n
}

func (q *queryReader) date(key string) *time.Time {
	v := q.str(key)
	if v == "" || q.err != nil {
		return nil
	}
	t, err := parseDate(v)
	if err != nil {
		q.err = fmt.Errorf("%s must be a YYYY-MM-DD date", key)
		return nil
	}
	return &t
}

func (q *queryReader) page() domain.Page {
	return domain.Page{Limit: q.integer("limit"), Offset: q.integer("offset")}.Normalize()
}
