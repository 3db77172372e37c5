package cx

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::([^{}]+))?\}`)

// Params keeps the bindings of a prepared statement. Placeholders use the server side
// syntax {name:Type}; a bare {name} takes its type from the hint given to Bind.
type Params struct {
	query  string
	values map[string]string
	hints  map[string]string
}

func NewParams(query string) *Params {
	return &Params{
		query:  query,
		values: map[string]string{},
		hints:  map[string]string{},
	}
}

func (p *Params) Query() string {
	return p.query
}

// Bind sets or replaces the value of a named parameter
func (p *Params) Bind(name string, value interface{}, typeHint string) {
	p.values[name] = FormatParam(value)
	if typeHint != "" {
		p.hints[name] = typeHint
	}
}

// Compile returns the query with every placeholder typed and the textual value of every parameter
func (p *Params) Compile() (string, map[string]string, error) {
	var err error
	values := make(map[string]string, len(p.values))
	query := placeholderRe.ReplaceAllStringFunc(p.query, func(placeholder string) string {
		match := placeholderRe.FindStringSubmatch(placeholder)
		name, typ := match[1], match[2]
		value, ok := p.values[name]
		if !ok {
			if err == nil {
				err = errors.Wrapf(ErrUnboundParameter, "parameter %q", name)
			}
			return placeholder
		}
		if typ == "" {
			if typ = p.hints[name]; typ == "" {
				if err == nil {
					err = errors.Errorf("parameter %q has no type", name)
				}
				return placeholder
			}
		}
		values[name] = value
		return "{" + name + ":" + typ + "}"
	})
	if err != nil {
		return "", nil, err
	}
	return query, values, nil
}

// FormatParam renders a Go value in the text form the server parses query parameters from
func FormatParam(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return `\N`
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
