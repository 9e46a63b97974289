// Package export converts properties to other formats.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/eightycats/litterbox/props"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	Properties Format = iota
	JSON
	YAML
	TOML
	TOON
)

var formatNames = []string{"properties", "json", "yaml", "toml", "toon"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns Format with a given name, case-insensitive
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(name)
	if name == "yml" {
		name = "yaml"
	}
	for i, s := range formatNames {
		if s == name {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("unknown format '%s', must be one of: %s", name, strings.Join(formatNames, ", "))
}

// Convert encodes s in format f
func Convert(s *props.Store, f Format) ([]byte, error) {
	switch f {
	case Properties:
		return s.Bytes(""), nil
	case JSON:
		return ToJSON(s)
	case YAML:
		return ToYAML(s)
	case TOML:
		return ToTOML(s)
	case TOON:
		return ToTOON(s)
	}
	return nil, fmt.Errorf("unknown format %s", f)
}

func toMap(s *props.Store) map[string]string {
	m := map[string]string{}
	for k, v := range s.All() {
		m[k] = v
	}
	return m
}

// ToJSON returns properties as a pretty-printed JSON object, keys
// in the same order as in s. Comments are dropped.
func ToJSON(s *props.Store) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range s.All() {
		dk, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		dv, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(dk)
		buf.WriteByte(':')
		buf.Write(dv)
	}
	buf.WriteByte('}')
	return pretty.Pretty(buf.Bytes()), nil
}

// yamlComment turns a properties comment into a yaml comment
func yamlComment(text string) string {
	text = strings.TrimLeft(text, " \t\f")
	if strings.HasPrefix(text, "!") {
		text = "#" + text[1:]
	}
	return text
}

// ToYAML returns properties as a YAML mapping, keys in the same order
// as in s. Comments are kept above the key that follows them.
func ToYAML(s *props.Store) ([]byte, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	var comments []string
	for _, e := range s.Elements() {
		switch v := e.(type) {
		case props.Comment:
			if c := yamlComment(v.Text); c != "" {
				comments = append(comments, c)
			}
		case props.Property:
			key := &yaml.Node{
				Kind:        yaml.ScalarNode,
				Tag:         "!!str",
				Value:       v.Key,
				HeadComment: strings.Join(comments, "\n"),
			}
			val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Value}
			m.Content = append(m.Content, key, val)
			comments = nil
		}
	}
	if len(m.Content) == 0 {
		// "{}"
		m.Style = yaml.FlowStyle
	}
	m.FootComment = strings.Join(comments, "\n")
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{m}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToTOML returns properties as a TOML table, keys sorted
func ToTOML(s *props.Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(toMap(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToTOON returns properties in toon format
func ToTOON(s *props.Store) ([]byte, error) {
	return toon.Marshal(toMap(s))
}

// Diff returns a unified diff between a and b, "" if they're the same
func Diff(nameA string, nameB string, a []byte, b []byte) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: nameA,
		ToFile:   nameB,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}
