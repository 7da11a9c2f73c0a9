// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package rag

import (
	"errors"
	"io"
	"strconv"
	"strings"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ValueKind reports which arm of a KeyValue is populated.
type ValueKind int

const (
	KindUnset ValueKind = iota
	KindString
	KindStringList
	KindNumeric
	kindAmbiguous
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringList:
		return "string_list"
	case KindNumeric:
		return "numeric"
	case KindUnset:
		return "unset"
	default:
		return "ambiguous"
	}
}

// KeyValue is one custom metadata entry on a document. Exactly one of
// StringValue, StringListValue or NumericValue is set; a non-nil empty
// StringListValue counts as set.
type KeyValue struct {
	Key             string   `json:"key"`
	StringValue     *string  `json:"string_value,omitempty"`
	StringListValue []string `json:"string_list_value,omitempty"`
	NumericValue    *float64 `json:"numeric_value,omitempty"`
}

func StringKV(key, value string) KeyValue {
	return KeyValue{Key: key, StringValue: &value}
}

func StringListKV(key string, values ...string) KeyValue {
	if values == nil {
		values = []string{}
	}
	return KeyValue{Key: key, StringListValue: values}
}

func NumericKV(key string, value float64) KeyValue {
	return KeyValue{Key: key, NumericValue: &value}
}

// Kind reports the populated arm.
func (kv KeyValue) Kind() ValueKind {
	kind, set := KindUnset, 0
	if kv.StringValue != nil {
		kind, set = KindString, set+1
	}
	if kv.StringListValue != nil {
		kind, set = KindStringList, set+1
	}
	if kv.NumericValue != nil {
		kind, set = KindNumeric, set+1
	}
	if set > 1 {
		return kindAmbiguous
	}
	return kind
}

// Validate checks the key and that exactly one value arm is set.
func (kv KeyValue) Validate() error {
	if strings.TrimSpace(kv.Key) == "" {
		return ragerr.New(ragerr.CodeRAGRequestInvalid, "metadata key must not be empty")
	}
	switch kv.Kind() {
	case KindUnset:
		return ragerr.Errorf(ragerr.CodeRAGRequestInvalid, "metadata %q has no value", kv.Key)
	case kindAmbiguous:
		return ragerr.Errorf(ragerr.CodeRAGRequestInvalid, "metadata %q sets more than one value kind", kv.Key)
	}
	return nil
}

// String renders the value for display.
func (kv KeyValue) String() string {
	switch kv.Kind() {
	case KindString:
		return kv.Key + "=" + *kv.StringValue
	case KindStringList:
		return kv.Key + "=[" + strings.Join(kv.StringListValue, ", ") + "]"
	case KindNumeric:
		return kv.Key + "=" + strconv.FormatFloat(*kv.NumericValue, 'g', -1, 64)
	default:
		return kv.Key + "=?"
	}
}

// ValidateMetadata validates every entry and rejects duplicate keys.
func ValidateMetadata(entries []KeyValue) error {
	seen := make(map[string]bool, len(entries))
	for _, kv := range entries {
		if err := kv.Validate(); err != nil {
			return err
		}
		if seen[kv.Key] {
			return ragerr.Errorf(ragerr.CodeRAGRequestInvalid, "metadata key %q appears more than once", kv.Key)
		}
		seen[kv.Key] = true
	}
	return nil
}

// ParseMetadata reads a flat YAML mapping into metadata entries, keeping
// document order. Numbers become numeric values, other scalars strings, and
// sequences of scalars string lists.
func ParseMetadata(r io.Reader) ([]KeyValue, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, ragerr.Wrapf(err, ragerr.CodeRAGRequestInvalid, "parsing metadata")
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ragerr.New(ragerr.CodeRAGRequestInvalid, "metadata must be a mapping of key to value")
	}

	out := make([]KeyValue, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		kv, err := nodeToKeyValue(key, val)
		if err != nil {
			return nil, err
		}
		out = append(out, kv)
	}

	if err := ValidateMetadata(out); err != nil {
		return nil, err
	}
	return out, nil
}

func nodeToKeyValue(key string, n *yaml.Node) (KeyValue, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return scalarKeyValue(key, n), nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return KeyValue{}, ragerr.Errorf(ragerr.CodeRAGRequestInvalid, "metadata %q: list items must be scalars", key)
			}
			values = append(values, item.Value)
		}
		return StringListKV(key, values...), nil
	default:
		return KeyValue{}, ragerr.Errorf(ragerr.CodeRAGRequestInvalid, "metadata %q: nested values are not supported", key)
	}
}

func scalarKeyValue(key string, n *yaml.Node) KeyValue {
	if n.Tag == "!!int" || n.Tag == "!!float" {
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return NumericKV(key, f)
		}
	}
	return StringKV(key, n.Value)
}

// ParseMetadataFlags parses "key=value" pairs as given on a command line.
// A value prefixed with '#' is numeric; a value containing ',' is a string
// list; anything else is a string.
func ParseMetadataFlags(pairs []string) ([]KeyValue, error) {
	out := make([]KeyValue, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, ragerr.Errorf(ragerr.CodeRAGRequestInvalid, "metadata %q must be key=value", pair)
		}
		key = strings.TrimSpace(key)

		switch {
		case strings.HasPrefix(value, "#"):
			f, err := strconv.ParseFloat(strings.TrimPrefix(value, "#"), 64)
			if err != nil {
				return nil, ragerr.Wrapf(err, ragerr.CodeRAGRequestInvalid, "metadata %q: invalid number", key)
			}
			out = append(out, NumericKV(key, f))
		case strings.Contains(value, ","):
			parts := strings.Split(value, ",")
			values := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					values = append(values, p)
				}
			}
			out = append(out, StringListKV(key, values...))
		default:
			out = append(out, StringKV(key, value))
		}
	}

	if err := ValidateMetadata(out); err != nil {
		return nil, err
	}
	return out, nil
}
