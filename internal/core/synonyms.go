package core

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonymsYAML []byte

// SynonymTable holds column synonyms per format key.
type SynonymTable map[string]Synonyms

// For returns the synonyms configured for f (nil when none).
func (st SynonymTable) For(f Format) Synonyms {
	return st[f.String()]
}

// DefaultSynonyms returns the built-in synonym table.
func DefaultSynonyms() SynonymTable {
	st, err := ParseSynonyms(defaultSynonymsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded synonyms.yaml: %v", err))
	}
	return st
}

// ParseSynonyms decodes a YAML synonym table. Unknown format keys are
// rejected so a typo in an override file fails loudly.
func ParseSynonyms(data []byte) (SynonymTable, error) {
	var st SynonymTable
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse synonyms: %w", err)
	}
	for key := range st {
		if _, ok := FormatByKey(key); !ok {
			return nil, fmt.Errorf("parse synonyms: unknown format %q", key)
		}
	}
	if st == nil {
		st = SynonymTable{}
	}
	return st, nil
}

// LoadSynonyms reads a YAML synonym table from r.
func LoadSynonyms(r io.Reader) (SynonymTable, error) {
	data, err := io.ReadAll(NewBOMSkippingReader(r))
	if err != nil {
		return nil, fmt.Errorf("read synonyms: %w", err)
	}
	return ParseSynonyms(data)
}

// LoadSynonymsFile reads a synonym table from path and merges it over the
// built-in table.
func LoadSynonymsFile(path string) (SynonymTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open synonyms file: %w", err)
	}
	defer f.Close()

	override, err := LoadSynonyms(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return DefaultSynonyms().Merge(override), nil
}

// Merge returns a table with other's spellings appended after the
// receiver's. Neither input is modified.
func (st SynonymTable) Merge(other SynonymTable) SynonymTable {
	out := make(SynonymTable, len(st))
	for key, syn := range st {
		out[key] = cloneSynonyms(syn)
	}
	for key, syn := range other {
		dst, ok := out[key]
		if !ok {
			dst = Synonyms{}
			out[key] = dst
		}
		for canonical, alts := range syn {
			dst[canonical] = appendUnique(dst[canonical], alts...)
		}
	}
	return out
}

func cloneSynonyms(s Synonyms) Synonyms {
	out := make(Synonyms, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
