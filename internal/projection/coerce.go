package projection

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// fields is the raw field bag of one Move object. Every accessor is total:
// absent, null or malformed values yield the zero value.
type fields map[string]json.RawMessage

// u64 reads an unsigned integer rendered either as a JSON number or as a
// decimal string (the node renders u64 and wider as strings).
func (f fields) u64(name string) uint64 {
	return coerceUint64(f[name])
}

// balance reads a Balance<T>, which the node renders as
// {"fields":{"value":"..."}}, {"value":"..."} or a bare value.
func (f fields) balance(name string) uint64 {
	return coerceBalance(f[name])
}

func (f fields) boolean(name string) bool {
	raw := bytes.TrimSpace(f[name])
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

func (f fields) str(name string) string {
	var s string
	if err := json.Unmarshal(f[name], &s); err != nil {
		return ""
	}
	return s
}

// id reads an object id given either as a plain string or as a UID
// ({"id":"0x..."}).
func (f fields) id(name string) string {
	return coerceID(f[name])
}

// millis reads a u64 millisecond timestamp. Zero stays the zero time.
func (f fields) millis(name string) time.Time {
	ms := f.u64(name)
	if ms == 0 || ms > math.MaxInt64 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func coerceUint64(raw json.RawMessage) uint64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	} else {
		s = string(raw)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func coerceBalance(raw json.RawMessage) uint64 {
	var wrapped struct {
		Fields *struct {
			Value json.RawMessage `json:"value"`
		} `json:"fields"`
		Value json.RawMessage `json:"value"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return 0
		}
		if wrapped.Fields != nil {
			return coerceUint64(wrapped.Fields.Value)
		}
		return coerceUint64(wrapped.Value)
	}
	return coerceUint64(trimmed)
}

func coerceID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var uid struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &uid); err != nil || len(uid.ID) == 0 {
		return ""
	}
	return coerceID(uid.ID)
}

// idList reads a vector<ID>. Entries that are not ids are skipped.
func (f fields) idList(name string) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(f[name], &items); err != nil {
		return nil
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := coerceID(item); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
