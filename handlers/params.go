package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultLimit = 25
	maxLimit     = 1000
)

// queryLimit reads the limit parameter, clamped to [1, maxLimit].
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return defaultLimit
	}
	return min(max(n, 1), maxLimit)
}

func queryPage(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	return page
}

// queryList collects a parameter given either repeatedly or comma separated.
func queryList(r *http.Request, key string) []string {
	var items []string
	for _, value := range r.URL.Query()[key] {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}
