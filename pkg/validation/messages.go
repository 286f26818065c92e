package validation

import (
	"fmt"

	"github.com/valyala/fasttemplate"
)

// Messages holds the templates used for each rule. Templates may reference
// {label} (the node label, or the path when unlabeled) and {path}.
type Messages struct {
	Required string
	URL      string
	Number   string
	Option   string
}

// DefaultMessages returns the stock English messages.
func DefaultMessages() Messages {
	return Messages{
		Required: "{label} is required",
		URL:      "Must be a valid HTTP/HTTPS URL",
		Number:   "Must be a number",
		Option:   "Must be one of the available options",
	}
}

type messageSet struct {
	required *fasttemplate.Template
	url      *fasttemplate.Template
	number   *fasttemplate.Template
	option   *fasttemplate.Template
}

func compileMessages(m Messages) (messageSet, error) {
	defaults := DefaultMessages()
	pick := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}

	var (
		set messageSet
		err error
	)
	entries := []struct {
		name   string
		source string
		target **fasttemplate.Template
	}{
		{"required", pick(m.Required, defaults.Required), &set.required},
		{"url", pick(m.URL, defaults.URL), &set.url},
		{"number", pick(m.Number, defaults.Number), &set.number},
		{"option", pick(m.Option, defaults.Option), &set.option},
	}
	for _, entry := range entries {
		*entry.target, err = fasttemplate.NewTemplate(entry.source, "{", "}")
		if err != nil {
			return messageSet{}, fmt.Errorf("validation: %s message: %w", entry.name, err)
		}
	}
	return set, nil
}

func render(tpl *fasttemplate.Template, label, path string) string {
	return tpl.ExecuteString(map[string]any{
		"label": label,
		"path":  path,
	})
}
