package core

import (
	"bytes"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

// MessageCatalog renders named text/template messages (notification texts, CLI feedback).
// Templates are parsed once, on first use.
type MessageCatalog struct {
	sources map[string]string
	strict  bool

	once      sync.Once
	templates map[string]*texttmpl.Template
	parseErr  error
}

// NewMessageCatalog returns a catalog over sources ({name: template}).
// In strict mode a missing key in the template data is an error.
func NewMessageCatalog(sources map[string]string, strict bool) *MessageCatalog {
	return &MessageCatalog{sources: sources, strict: strict}
}

func (c *MessageCatalog) parse() {
	c.templates = make(map[string]*texttmpl.Template, len(c.sources))
	for name, src := range c.sources {
		tmpl, err := texttmpl.New(name).Parse(src)
		if err != nil {
			c.parseErr = errors.Wrapf(err, "parsing message %q", name)
			return
		}
		if c.strict {
			tmpl = tmpl.Option("missingkey=error")
		}
		c.templates[name] = tmpl
	}
}

// Render executes the named message with data.
func (c *MessageCatalog) Render(name string, data interface{}) (string, error) {
	c.once.Do(c.parse)
	if c.parseErr != nil {
		return "", c.parseErr
	}
	tmpl, ok := c.templates[name]
	if !ok {
		return "", errors.Errorf("unknown message %q", name)
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, data); err != nil {
		return "", errors.Wrapf(err, "rendering message %q", name)
	}
	return buff.String(), nil
}
