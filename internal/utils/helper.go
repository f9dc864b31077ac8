package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// QueryInt32 reads a positive integer query parameter, 0 when absent or bad.
func QueryInt32(r *http.Request, key string) int32 {
	n, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 32)
	if err != nil || n < 0 {
		return 0
	}
	return int32(n)
}

// Paginate normalises limit/page the same way for every list endpoint.
func Paginate(limit, page int32) (int32, int32, int32) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, page, (page - 1) * limit
}
