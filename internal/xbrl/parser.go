// Package xbrl reads facts from XBRL instance documents downloaded from
// EDGAR.
package xbrl

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/xbrl-fetch/internal/fetcher"
)

// Instance is the parsed content of an instance document.
type Instance struct {
	Contexts map[string]Context `json:"contexts" yaml:"contexts"`
	Facts    []Fact             `json:"facts" yaml:"facts"`
}

// Context is an xbrli:context with its reporting period.
type Context struct {
	ID        string `json:"id" yaml:"id"`
	EntityCIK string `json:"entity_cik,omitempty" yaml:"entity_cik,omitempty"`
	Instant   string `json:"instant,omitempty" yaml:"instant,omitempty"`
	StartDate string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Dimension bool   `json:"dimension,omitempty" yaml:"dimension,omitempty"`
}

// Period returns the instant or end date of the context.
func (c Context) Period() string {
	if c.Instant != "" {
		return c.Instant
	}
	return c.EndDate
}

// Fact is one reported value: an element carrying a contextRef.
type Fact struct {
	Name       string `json:"name" yaml:"name"`
	Namespace  string `json:"namespace" yaml:"namespace"`
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	ContextRef string `json:"context_ref" yaml:"context_ref"`
	UnitRef    string `json:"unit_ref,omitempty" yaml:"unit_ref,omitempty"`
	Decimals   string `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Value      string `json:"value" yaml:"value"`
}

// Taxonomy returns the short taxonomy name ("us-gaap", "dei", ...) of the
// fact's namespace URI, or the URI itself when it is not recognized.
func (f Fact) Taxonomy() string {
	return taxonomyOf(f.Namespace)
}

type contextXML struct {
	ID     string `xml:"id,attr"`
	Entity struct {
		Identifier string `xml:"identifier"`
		Segment    *struct {
			Inner string `xml:",innerxml"`
		} `xml:"segment"`
	} `xml:"entity"`
	Period struct {
		Instant   string `xml:"instant"`
		StartDate string `xml:"startDate"`
		EndDate   string `xml:"endDate"`
	} `xml:"period"`
}

// ParseInstance streams an instance document and collects its contexts and
// facts in document order.
func ParseInstance(r io.Reader) (*Instance, error) {
	dec := fetcher.NewXMLDecoder(r)
	inst := &Instance{Contexts: make(map[string]Context)}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "xbrl: read instance")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if start.Name.Local == "context" {
			var cx contextXML
			if err := dec.DecodeElement(&cx, &start); err != nil {
				return nil, eris.Wrap(err, "xbrl: decode context")
			}
			inst.Contexts[cx.ID] = Context{
				ID:        cx.ID,
				EntityCIK: strings.TrimSpace(cx.Entity.Identifier),
				Instant:   strings.TrimSpace(cx.Period.Instant),
				StartDate: strings.TrimSpace(cx.Period.StartDate),
				EndDate:   strings.TrimSpace(cx.Period.EndDate),
				Dimension: cx.Entity.Segment != nil,
			}
			continue
		}

		contextRef := attr(start, "contextRef")
		if contextRef == "" {
			continue
		}
		var v struct {
			Text string `xml:",chardata"`
		}
		if err := dec.DecodeElement(&v, &start); err != nil {
			return nil, eris.Wrapf(err, "xbrl: decode fact %s", start.Name.Local)
		}
		inst.Facts = append(inst.Facts, Fact{
			Name:       start.Name.Local,
			Namespace:  start.Name.Space,
			ID:         attr(start, "id"),
			ContextRef: contextRef,
			UnitRef:    attr(start, "unitRef"),
			Decimals:   attr(start, "decimals"),
			Value:      strings.TrimSpace(v.Text),
		})
	}
	return inst, nil
}

// ExtractedFact is a target fact joined with its context period.
type ExtractedFact struct {
	Name     string `json:"name" yaml:"name"`
	Taxonomy string `json:"taxonomy" yaml:"taxonomy"`
	Period   string `json:"period" yaml:"period"`
	Value    string `json:"value" yaml:"value"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Decimals string `json:"decimals,omitempty" yaml:"decimals,omitempty"`
}

// ExtractTargetFacts returns the us-gaap and dei facts named in targets that
// are reported against a non-dimensional context.
func ExtractTargetFacts(inst *Instance, targets []string) []ExtractedFact {
	if inst == nil || len(inst.Facts) == 0 {
		return nil
	}

	targetSet := make(map[string]bool, len(targets))
	for _, t := range targets {
		targetSet[t] = true
	}

	var result []ExtractedFact
	for _, f := range inst.Facts {
		if !targetSet[f.Name] {
			continue
		}
		tax := f.Taxonomy()
		if tax != "us-gaap" && tax != "dei" {
			continue
		}
		cx, ok := inst.Contexts[f.ContextRef]
		if ok && cx.Dimension {
			continue
		}
		result = append(result, ExtractedFact{
			Name:     f.Name,
			Taxonomy: tax,
			Period:   cx.Period(),
			Value:    f.Value,
			Unit:     f.UnitRef,
			Decimals: f.Decimals,
		})
	}
	return result
}

func attr(start xml.StartElement, local string) string {
	for _, a := range start.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// taxonomyOf maps namespace URIs such as http://fasb.org/us-gaap/2022 and
// http://xbrl.sec.gov/dei/2022 to their short names.
func taxonomyOf(ns string) string {
	switch {
	case strings.Contains(ns, "/us-gaap/"):
		return "us-gaap"
	case strings.Contains(ns, "/dei/"):
		return "dei"
	case strings.Contains(ns, "/srt/"):
		return "srt"
	default:
		return ns
	}
}
