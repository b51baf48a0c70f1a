package xbrl

import (
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/xbrl-fetch/internal/fetcher"
)

// DefaultRequiredAttrs are the attributes every identified numeric fact
// should carry.
var DefaultRequiredAttrs = []string{"contextRef", "decimals", "unitRef"}

// Issue is an element with an id that lacks required attributes.
type Issue struct {
	ElementID     string   `json:"element_id" yaml:"element_id"`
	Element       string   `json:"element" yaml:"element"`
	MissingFields []string `json:"missing_fields" yaml:"missing_fields"`
}

// Validate reports every element with an id attribute that is missing any
// of required, in document order.
func Validate(r io.Reader, required []string) ([]Issue, error) {
	if len(required) == 0 {
		required = DefaultRequiredAttrs
	}
	dec := fetcher.NewXMLDecoder(r)

	var issues []Issue
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "xbrl: read document")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		id := attr(start, "id")
		if id == "" {
			continue
		}

		var missing []string
		for _, field := range required {
			if !hasAttr(start, field) {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			issues = append(issues, Issue{ElementID: id, Element: start.Name.Local, MissingFields: missing})
		}
	}
	return issues, nil
}

func hasAttr(start xml.StartElement, local string) bool {
	for _, a := range start.Attr {
		if a.Name.Local == local {
			return true
		}
	}
	return false
}
