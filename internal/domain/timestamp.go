package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the publish time formats seen from the ingest pipeline
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// UnmarshalJSON decodes an upstream article. A missing, empty or unparseable
// publishedAt leaves PublishedAt nil instead of failing the whole article.
func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	aux := struct {
		*plain
		PublishedAt json.RawMessage `json:"publishedAt"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.PublishedAt = ParseTimestamp(aux.PublishedAt)
	return nil
}

// ParseTimestamp reads a JSON timestamp as a string in one of the known
// layouts or as unix seconds or milliseconds. It returns nil when the value
// is absent or unreadable.
func ParseTimestamp(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	if raw[0] != '"' {
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil || n <= 0 {
			return nil
		}
		var t time.Time
		if n > 1e12 {
			t = time.UnixMilli(n).UTC()
		} else {
			t = time.Unix(n, 0).UTC()
		}
		return &t
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
