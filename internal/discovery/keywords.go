// Package discovery seeds prospect candidates from keyword web searches.
package discovery

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Pack is one named group of search keywords, optionally crossed with
// geographic qualifiers. Packs are opt-in: a missing enabled flag means off.
type Pack struct {
	Name     string   `yaml:"name"`
	Enabled  bool     `yaml:"enabled"`
	Keywords []string `yaml:"keywords"`
	Geo      []string `yaml:"geo"`
}

type keywordFile struct {
	Packs []Pack `yaml:"packs"`
}

// Query is one expanded search query with its provenance.
type Query struct {
	Text    string
	Keyword string
	Pack    string
}

// LoadPacks reads a keyword pack file. A file with no packs key or an empty
// pack list is an error; an all-disabled file is not.
func LoadPacks(path string) ([]Pack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read keywords %s", path)
	}

	var kf keywordFile
	if err := yaml.Unmarshal(raw, &kf); err != nil {
		return nil, eris.Wrapf(err, "discovery: parse keywords %s", path)
	}
	if len(kf.Packs) == 0 {
		return nil, eris.Errorf("discovery: no packs defined in %s", path)
	}
	return kf.Packs, nil
}

// ExpandQueries crosses each enabled pack's keywords with its geo qualifiers,
// in file order. Blank keywords and blank geo entries are skipped; a pack
// without a geo list yields the bare keywords.
func ExpandQueries(packs []Pack) []Query {
	var queries []Query
	for _, pack := range packs {
		if !pack.Enabled {
			continue
		}
		for _, kw := range pack.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if len(pack.Geo) == 0 {
				queries = append(queries, Query{Text: kw, Keyword: kw, Pack: pack.Name})
				continue
			}
			for _, geo := range pack.Geo {
				geo = strings.TrimSpace(geo)
				if geo == "" {
					continue
				}
				queries = append(queries, Query{Text: kw + " " + geo, Keyword: kw, Pack: pack.Name})
			}
		}
	}
	return queries
}
