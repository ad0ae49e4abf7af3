// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rpc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v2"
)

const (
	// AttrPrefix marks attributes and namespace declarations in a Tree.
	AttrPrefix = "@"
	// TextKey holds the character data of an element that also has attributes or children.
	TextKey = "#text"
)

// ToTree converts e into an ordered key/value tree. Attributes and namespace
// declarations are keyed with AttrPrefix, child elements by their tag and
// repeated children become a list. An element with neither attributes nor
// children maps to its text, or nil when empty.
func ToTree(e *etree.Element) yaml.MapSlice {
	return yaml.MapSlice{{Key: e.FullTag(), Value: elementContent(e)}}
}

func elementContent(e *etree.Element) interface{} {
	var content yaml.MapSlice
	for _, a := range e.Attr {
		content = append(content, yaml.MapItem{Key: AttrPrefix + a.FullKey(), Value: a.Value})
	}

	// group children by tag, keeping first occurrence order
	var order []string
	groups := map[string][]interface{}{}
	for _, c := range e.ChildElements() {
		tag := c.FullTag()
		if _, ok := groups[tag]; !ok {
			order = append(order, tag)
		}
		groups[tag] = append(groups[tag], elementContent(c))
	}
	for _, tag := range order {
		g := groups[tag]
		if len(g) == 1 {
			content = append(content, yaml.MapItem{Key: tag, Value: g[0]})
			continue
		}
		content = append(content, yaml.MapItem{Key: tag, Value: g})
	}

	text := strings.TrimSpace(e.Text())
	if len(content) == 0 {
		if text == "" {
			return nil
		}
		return text
	}
	if text != "" {
		content = append(content, yaml.MapItem{Key: TextKey, Value: text})
	}
	return content
}

// FromTree is the inverse of ToTree. The tree must hold exactly one root.
func FromTree(t yaml.MapSlice) (*etree.Element, error) {
	if len(t) != 1 {
		return nil, fmt.Errorf("tree must have exactly one root element, got %d", len(t))
	}
	tag, ok := t[0].Key.(string)
	if !ok {
		return nil, fmt.Errorf("invalid element name %v", t[0].Key)
	}
	e := etree.NewElement(tag)
	if err := fillElement(e, t[0].Value); err != nil {
		return nil, err
	}
	return e, nil
}

func fillElement(e *etree.Element, v interface{}) error {
	switch v := v.(type) {
	case nil:
		return nil
	case yaml.MapSlice:
		for _, item := range v {
			key, ok := item.Key.(string)
			if !ok {
				return fmt.Errorf("invalid key %v under %s", item.Key, e.FullTag())
			}
			if err := fillItem(e, key, item.Value); err != nil {
				return err
			}
		}
	case map[interface{}]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, fmt.Sprint(k))
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := fillItem(e, k, v[k]); err != nil {
				return err
			}
		}
	case []interface{}:
		return fmt.Errorf("unexpected list as content of %s", e.FullTag())
	default:
		e.SetText(fmt.Sprint(v))
	}
	return nil
}

func fillItem(e *etree.Element, key string, v interface{}) error {
	switch {
	case key == TextKey:
		e.SetText(fmt.Sprint(v))
	case strings.HasPrefix(key, AttrPrefix):
		e.CreateAttr(strings.TrimPrefix(key, AttrPrefix), fmt.Sprint(v))
	default:
		if list, ok := v.([]interface{}); ok {
			for _, lv := range list {
				if err := fillElement(e.CreateElement(key), lv); err != nil {
					return err
				}
			}
			return nil
		}
		return fillElement(e.CreateElement(key), v)
	}
	return nil
}
