package oneblog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// maxBodyBytes limits request bodies read by the handlers
const maxBodyBytes = 1 << 20

// formValues reads a urlencoded form or a JSON object into a flat map of
// string fields. Non-string JSON values are ignored.
func formValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	out := make(map[string]string)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("error parsing form")
		}
		for k := range r.PostForm {
			out[k] = r.PostForm.Get(k)
		}
		return out, nil
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		// an empty body behaves like an empty object so presence checks report it
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		return nil, fmt.Errorf("invalid post body")
	}
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// firstOf returns the first non-empty value among the given keys
func firstOf(values map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := values[k]; v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

// writeError renders err with its mapped status. Causes are not exposed.
func writeError(w http.ResponseWriter, err error) {
	e := AsError(err)
	body := map[string]any{
		"message": e.Message,
		"code":    e.Kind,
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	writeJSON(w, e.StatusCode(), body)
}

func badBody(w http.ResponseWriter, err error) {
	writeError(w, validationError(err.Error(), ""))
}
