// Package version composes version descriptors that inherit from a
// parent descriptor.
package version

import (
	"bytes"
	"encoding/json"

	"github.com/tie/modlauncher/modlauncher"
)

const (
	fieldID           = "id"
	fieldInheritsFrom = "inheritsFrom"
)

// Descriptor is a version profile. Apart from its id and parent reference
// the fields are opaque JSON values owned by the launcher.
type Descriptor struct {
	ID           string
	InheritsFrom string
	Fields       map[string]interface{}
}

// Field returns the decoded value of key.
func (d Descriptor) Field(key string) (interface{}, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return modlauncher.InvalidDescriptor("decode version profile: %v", err)
	}
	if fields == nil {
		return modlauncher.InvalidDescriptor("version profile is not an object")
	}
	id, err := stringField(fields, fieldID)
	if err != nil {
		return err
	}
	parent, err := stringField(fields, fieldInheritsFrom)
	if err != nil {
		return err
	}
	if id == "" {
		return modlauncher.InvalidDescriptor("version profile without id")
	}
	delete(fields, fieldID)
	delete(fields, fieldInheritsFrom)
	*d = Descriptor{
		ID:           id,
		InheritsFrom: parent,
		Fields:       fields,
	}
	return nil
}

func stringField(fields map[string]interface{}, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", modlauncher.InvalidDescriptor("field %q is %T, not a string", key, v)
	}
	return s, nil
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(d.Fields)+2)
	for k, v := range d.Fields {
		fields[k] = v
	}
	fields[fieldID] = d.ID
	if d.InheritsFrom != "" {
		fields[fieldInheritsFrom] = d.InheritsFrom
	}
	return json.Marshal(fields)
}

// Merge returns child completed with the fields of parent. Child fields
// take precedence; arrays present on both are concatenated child first and
// objects present on both are merged the same way. The result inherits
// from the parent's parent. Neither argument is modified.
func Merge(child, parent Descriptor) Descriptor {
	return Descriptor{
		ID:           child.ID,
		InheritsFrom: parent.InheritsFrom,
		Fields:       mergeObjects(child.Fields, parent.Fields),
	}
}

func mergeObjects(child, parent map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(child)+len(parent))
	for k, v := range parent {
		out[k] = copyValue(v)
	}
	for k, cv := range child {
		pv, ok := out[k]
		if !ok {
			out[k] = copyValue(cv)
			continue
		}
		out[k] = mergeValues(cv, pv)
	}
	return out
}

func mergeValues(child, parent interface{}) interface{} {
	switch c := child.(type) {
	case []interface{}:
		if p, ok := parent.([]interface{}); ok {
			out := make([]interface{}, 0, len(c)+len(p))
			for _, v := range c {
				out = append(out, copyValue(v))
			}
			return append(out, p...)
		}
	case map[string]interface{}:
		if p, ok := parent.(map[string]interface{}); ok {
			return mergeObjects(c, p)
		}
	}
	return copyValue(child)
}

func copyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			out[k] = copyValue(e)
		}
		return out
	}
	return v
}

// Catalog lists known game versions, as in Mojang's version_manifest.json.
type Catalog struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []CatalogEntry `json:"versions"`
}

type CatalogEntry struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Lookup returns the descriptor URL of version id.
func (c *Catalog) Lookup(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, v := range c.Versions {
		if v.ID == id {
			return v.URL, true
		}
	}
	return "", false
}
