// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// view query parameters, import parameters and manual-save bodies.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/importer"
	"fintrack/internal/insights"
	"fintrack/internal/series"
	"fintrack/internal/services"
)

// maxBodyBytes bounds import and save bodies.
const maxBodyBytes = 1 << 20

// ViewParams holds the sort and visibility options of a view request.
type ViewParams struct {
	Sort    services.SortOptions
	Visible insights.Visible
}

// CacheKey identifies the derived view for these parameters under prefix.
func (p ViewParams) CacheKey(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('|')
	b.WriteString(string(p.Sort.Key))
	b.WriteByte('|')
	b.WriteString(string(p.Sort.Direction))
	b.WriteByte('|')
	for _, m := range insights.Metrics {
		if p.Visible[m] {
			b.WriteString(string(m))
			b.WriteByte(',')
		}
	}
	return b.String()
}

// ParseViewParams reads sort, dir and visible. dir falls back to defaultDir
// when absent.
func ParseViewParams(query url.Values, defaultDir series.Direction) (ViewParams, error) {
	key, ok := series.ParseKey(query.Get("sort"))
	if !ok {
		return ViewParams{}, fmt.Errorf("unknown sort key %q", query.Get("sort"))
	}
	dir := defaultDir
	if raw := strings.TrimSpace(query.Get("dir")); raw != "" {
		if dir, ok = series.ParseDirection(raw); !ok {
			return ViewParams{}, fmt.Errorf("unknown sort direction %q", raw)
		}
	}
	return ViewParams{
		Sort:    services.SortOptions{Key: key, Direction: dir},
		Visible: insights.ParseVisible(query.Get("visible")),
	}, nil
}

// ImportParams holds the query parameters of an import request.
type ImportParams struct {
	Scope   importer.Scope
	Target  string
	Confirm bool
}

// ParseImportParams reads scope, target and confirm. Scope defaults to
// history; confirm accepts anything strconv.ParseBool does.
func ParseImportParams(query url.Values) (ImportParams, error) {
	raw := strings.TrimSpace(query.Get("scope"))
	if raw == "" {
		raw = string(importer.ScopeHistory)
	}
	scope, ok := importer.ParseScope(raw)
	if !ok {
		return ImportParams{}, fmt.Errorf("unknown import scope %q", raw)
	}
	p := ImportParams{Scope: scope, Target: sanitizeInput(query.Get("target"))}
	if v := strings.TrimSpace(query.Get("confirm")); v != "" {
		confirm, err := strconv.ParseBool(v)
		if err != nil {
			return ImportParams{}, fmt.Errorf("invalid confirm flag %q", v)
		}
		p.Confirm = confirm
	}
	if scope != importer.ScopeHistory && p.Target == "" {
		return ImportParams{}, fmt.Errorf("scope %s requires a target", scope)
	}
	return p, nil
}

// ReadBody reads at most maxBodyBytes of the request body.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// RequestBodyParser handles JSON and form-encoded bodies alike.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = ReadBody(w, r)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// AmountsInput is the body of a manual save.
type AmountsInput struct {
	Income  string
	Expense string
	Balance string
}

// ParseAmounts reads income, expense and balance from a save body.
func ParseAmounts(p *RequestBodyParser) (AmountsInput, error) {
	if err := p.Parse(); err != nil {
		return AmountsInput{}, fmt.Errorf("parse body: %w", err)
	}
	return AmountsInput{
		Income:  p.Get("income"),
		Expense: p.Get("expense"),
		Balance: p.Get("balance"),
	}, nil
}

// sanitizeInput removes control characters except tab and newlines, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
