package request

import (
	"net/http"
	"strconv"
)

// GetQueryString returns a string query parameter or the default value
func GetQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// GetQueryInt returns an integer query parameter or the default value
func GetQueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return intVal
}

// GetQueryIntWithRange returns an integer query parameter clamped to a range
func GetQueryIntWithRange(r *http.Request, key string, defaultVal, minVal, maxVal int) int {
	val := GetQueryInt(r, key, defaultVal)

	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}

	return val
}
