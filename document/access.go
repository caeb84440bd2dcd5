package document

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConfigError 表示解析后的文档缺少必需键、类型不符，或谓词表达式格式错误。
type ConfigError struct {
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "配置错误: " + e.Reason
	}
	return fmt.Sprintf("配置错误 %s: %s", e.Path, e.Reason)
}

func missing(path string) error {
	return &ConfigError{Path: path, Reason: "缺少必需的键"}
}

func mistyped(path, want string, got any) error {
	return &ConfigError{Path: path, Reason: fmt.Sprintf("期望 %s，实际为 %T", want, got)}
}

// Has reports whether key is present at the top level.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Sub returns the mapping stored at key.
func (d Document) Sub(key string) (Document, error) {
	v, ok := d[key]
	if !ok {
		return nil, missing(key)
	}
	m, ok := AsDocument(v)
	if !ok {
		return nil, mistyped(key, "object", v)
	}
	return m, nil
}

// String returns the string stored at key.
func (d Document) String(key string) (string, error) {
	v, ok := d[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", mistyped(key, "string", v)
	}
	return s, nil
}

// StringOr returns the string at key, or def when the key is absent.
func (d Document) StringOr(key, def string) (string, error) {
	if !d.Has(key) {
		return def, nil
	}
	return d.String(key)
}

// Int returns the integer stored at key. Integral floats (as decoded from JSON) are accepted.
func (d Document) Int(key string) (int, error) {
	v, ok := d[key]
	if !ok {
		return 0, missing(key)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, mistyped(key, "integer", v)
	}
	return n, nil
}

// IntOr returns the integer at key, or def when the key is absent.
func (d Document) IntOr(key string, def int) (int, error) {
	if !d.Has(key) {
		return def, nil
	}
	return d.Int(key)
}

// Float returns the number stored at key.
func (d Document) Float(key string) (float64, error) {
	v, ok := d[key]
	if !ok {
		return 0, missing(key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, mistyped(key, "number", v)
	}
	return f, nil
}

// FloatOr returns the number at key, or def when the key is absent.
func (d Document) FloatOr(key string, def float64) (float64, error) {
	if !d.Has(key) {
		return def, nil
	}
	return d.Float(key)
}

// Bool returns the boolean stored at key.
func (d Document) Bool(key string) (bool, error) {
	v, ok := d[key]
	if !ok {
		return false, missing(key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, mistyped(key, "bool", v)
	}
	return b, nil
}

// BoolOr returns the boolean at key, or def when the key is absent.
func (d Document) BoolOr(key string, def bool) (bool, error) {
	if !d.Has(key) {
		return def, nil
	}
	return d.Bool(key)
}

// Ints returns the integer sequence stored at key; n > 0 enforces its length.
func (d Document) Ints(key string, n int) ([]int, error) {
	v, ok := d[key]
	if !ok {
		return nil, missing(key)
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, mistyped(key, "array", v)
	}
	if n > 0 && len(seq) != n {
		return nil, &ConfigError{Path: key, Reason: fmt.Sprintf("期望 %d 个元素，实际为 %d", n, len(seq))}
	}
	out := make([]int, len(seq))
	for i, item := range seq {
		iv, ok := toInt(item)
		if !ok {
			return nil, mistyped(key+"["+strconv.Itoa(i)+"]", "integer", item)
		}
		out[i] = iv
	}
	return out, nil
}

// Strings returns the string sequence stored at key.
func (d Document) Strings(key string) ([]string, error) {
	v, ok := d[key]
	if !ok {
		return nil, missing(key)
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, mistyped(key, "array", v)
	}
	out := make([]string, len(seq))
	for i, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, mistyped(key+"["+strconv.Itoa(i)+"]", "string", item)
		}
		out[i] = s
	}
	return out, nil
}

// Entries returns the mapping-valued children of d. Scalar siblings such as
// "basepath" live next to the named entries and are skipped.
func (d Document) Entries() map[string]Document {
	out := make(map[string]Document, len(d))
	for k, v := range d {
		if m, ok := AsDocument(v); ok {
			out[k] = m
		}
	}
	return out
}

// Prefix rewrites the Path of a ConfigError so nested lookups report their full location.
func Prefix(err error, prefix string) error {
	if ce, ok := err.(*ConfigError); ok {
		path := prefix
		if ce.Path != "" {
			path = strings.TrimSuffix(prefix, ".") + "." + ce.Path
		}
		return &ConfigError{Path: path, Reason: ce.Reason}
	}
	return err
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
