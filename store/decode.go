package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/textboxer/document"
)

// extensions lists supported document formats in lookup priority order.
var extensions = []string{".json", ".jsonc", ".yaml", ".yml"}

func supported(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// decode parses a document by file extension and normalises nested maps.
func decode(name string, data []byte) (any, error) {
	var v any
	if isYAML(name) {
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		if v == nil {
			v = map[string]any{}
		}
		return document.Normalize(v), nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &v); err != nil {
		return nil, err
	}
	return document.Normalize(v), nil
}

// decodeOrdered parses a top-level mapping of name → object, keeping the
// order in which names are declared.
func decodeOrdered(name string, data []byte) ([]Entry, error) {
	if isYAML(name) {
		return decodeOrderedYAML(data)
	}
	return decodeOrderedJSON(jsonc.ToJSON(data))
}

func decodeOrderedJSON(data []byte) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("顶层必须是对象")
	}
	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("意外的键 %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		entry, err := newEntry(key, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return entries, nil
}

func decodeOrderedYAML(data []byte) ([]Entry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("顶层必须是映射")
	}
	var entries []Entry
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		var raw any
		if err := mapping.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		entry, err := newEntry(key, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func newEntry(key string, raw any) (Entry, error) {
	doc, ok := document.AsDocument(document.Normalize(raw))
	if !ok {
		return Entry{}, &document.ConfigError{Path: key, Reason: fmt.Sprintf("覆盖项必须是对象，实际为 %T", raw)}
	}
	return Entry{Name: key, Doc: doc}, nil
}
