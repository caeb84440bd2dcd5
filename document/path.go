package document

import (
	"strconv"
	"strings"
)

// Lookup 按 "fonts.main.size" 或 "images.face.divide[0]" 形式的路径取值。
func (d Document) Lookup(path string) (any, bool) {
	var current any = d
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// SubPath 与 Sub 相同，但接受 Lookup 路径；缺失时返回带完整路径的 ConfigError。
func (d Document) SubPath(path string) (Document, error) {
	v, ok := d.Lookup(path)
	if !ok {
		return nil, missing(path)
	}
	m, ok := AsDocument(v)
	if !ok {
		return nil, mistyped(path, "object", v)
	}
	return m, nil
}

func parseSegment(segment string) (string, []string) {
	name := segment
	indexes := []string{}
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 {
			if rest[0] != '[' {
				break
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	m, ok := AsDocument(current)
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	return val, ok
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
