// Package args binds positional command-line arguments to a style's argument
// schema.
//
// A schema is a list of items such as "text:main", "image:face" and
// "textfill:main", read from the style's preload data ("str" for string mode,
// "args" for list mode). An item ending in "?" is optional. Image arguments
// prefixed with "path:" name an asset by its path relative to the resource
// root instead of by alias.
package args

import (
	"fmt"
	"strings"

	"github.com/ByLCY/textboxer/document"
)

// Item kinds.
const (
	KindText     = "text"
	KindImage    = "image"
	KindTextFill = "textfill"
)

// ExplicitPrefix marks an image argument as a root-relative asset path.
const ExplicitPrefix = "path:"

var flagPrefixes = []string{"f:", "flag:"}

// Item is one entry of an argument schema.
type Item struct {
	Kind     string
	Name     string
	Optional bool
}

func (i Item) String() string {
	s := i.Kind + ":" + i.Name
	if i.Optional {
		s += "?"
	}
	return s
}

// Schema is an ordered argument schema.
type Schema []Item

// ParseSchema parses schema entries of the form "kind:name" or "kind:name?".
func ParseSchema(entries []string) (Schema, error) {
	schema := make(Schema, 0, len(entries))
	for i, entry := range entries {
		kind, name, ok := strings.Cut(entry, ":")
		if !ok || name == "" {
			return nil, &document.ConfigError{Path: fmt.Sprintf("[%d]", i), Reason: fmt.Sprintf("参数描述 %q 应为 kind:name", entry)}
		}
		item := Item{Kind: kind, Name: name}
		if strings.HasSuffix(name, "?") {
			item.Name = strings.TrimSuffix(name, "?")
			item.Optional = true
		}
		switch kind {
		case KindText, KindImage, KindTextFill:
		default:
			return nil, &document.ConfigError{Path: fmt.Sprintf("[%d]", i), Reason: fmt.Sprintf("未知的参数类型 %q", kind)}
		}
		schema = append(schema, item)
	}
	return schema, nil
}

// Required counts the items that must be bound.
func (s Schema) Required() int {
	n := 0
	for _, item := range s {
		if !item.Optional {
			n++
		}
	}
	return n
}

// ImageArg is a bound image argument.
type ImageArg struct {
	Key string
	// Explicit requests root-relative path resolution instead of alias lookup.
	Explicit bool
}

// Bound holds the result of binding arguments to a schema.
type Bound struct {
	Text   map[string]string
	Images map[string]ImageArg
	Flags  []string
	// Extra holds string-mode tokens left over after the schema was exhausted.
	Extra []string
}

func newBound() *Bound {
	return &Bound{Text: map[string]string{}, Images: map[string]ImageArg{}}
}

// ArityError reports that fewer positional arguments were given than the
// schema requires.
type ArityError struct {
	Item string
	Need int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("参数不足: %s 没有对应的参数（至少需要 %d 个，实际 %d 个）", e.Item, e.Need, e.Got)
}

// Tokenize splits a string-mode input on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// BindStr binds string-mode tokens. Leading "f:"/"flag:" tokens are flags; a
// textfill item consumes every remaining token joined by single spaces.
func BindStr(schema Schema, tokens []string) (*Bound, error) {
	b := newBound()
	for len(tokens) > 0 {
		flag, ok := cutFlag(tokens[0])
		if !ok {
			break
		}
		b.Flags = append(b.Flags, flag)
		tokens = tokens[1:]
	}
	rest, err := bind(b, schema, tokens)
	if err != nil {
		return nil, err
	}
	b.Extra = rest
	return b, nil
}

// BindArgs binds list-mode arguments one to one; arguments beyond the schema
// become flags.
func BindArgs(schema Schema, list []string) (*Bound, error) {
	b := newBound()
	rest, err := bind(b, schema, list)
	if err != nil {
		return nil, err
	}
	b.Flags = append(b.Flags, rest...)
	return b, nil
}

func bind(b *Bound, schema Schema, tokens []string) ([]string, error) {
	given := len(tokens)
	for _, item := range schema {
		if len(tokens) == 0 {
			if item.Optional {
				continue
			}
			return nil, &ArityError{Item: item.String(), Need: schema.Required(), Got: given}
		}
		switch item.Kind {
		case KindText:
			b.Text[item.Name] = tokens[0]
			tokens = tokens[1:]
		case KindImage:
			b.Images[item.Name] = imageArg(tokens[0])
			tokens = tokens[1:]
		case KindTextFill:
			b.Text[item.Name] = strings.Join(tokens, " ")
			tokens = nil
		}
	}
	return tokens, nil
}

func imageArg(token string) ImageArg {
	if key, ok := strings.CutPrefix(token, ExplicitPrefix); ok {
		return ImageArg{Key: key, Explicit: true}
	}
	return ImageArg{Key: token}
}

func cutFlag(token string) (string, bool) {
	for _, p := range flagPrefixes {
		if rest, ok := strings.CutPrefix(token, p); ok {
			return rest, true
		}
	}
	return "", false
}
