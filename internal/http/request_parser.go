// This file implements utilities for parsing and validating HTTP request
// data: JSON body decoding with size limits, query parameter extraction,
// and input sanitization.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"saldo/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// DecodeJSON reads and decodes the request body into dst, rejecting unknown
// fields and oversized bodies.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("empty request body")
		case strings.Contains(err.Error(), "unknown field"):
			return err
		default:
			return fmt.Errorf("malformed JSON: %w", err)
		}
	}
	// A second value means trailing garbage.
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// ParseDateQuery reads the "date" query parameter (YYYY-MM-DD), defaulting
// to today when absent.
func ParseDateQuery(r *http.Request) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, v)
	}
	return parsed, nil
}

// ParseDateField parses a request body date string in YYYY-MM-DD format.
func ParseDateField(v string) (core.Date, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(v))
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, v)
	}
	return core.Date{Time: parsed}, nil
}

// ParseIDPath parses the {id} path value as a positive integer.
func ParseIDPath(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
