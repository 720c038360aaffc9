package models

import (
	"encoding/json"
)

// PropertySet is a named bag of string properties. The name is fixed at
// construction; the properties are mutated in place with Set.
type PropertySet struct {
	name       string
	properties map[string]string
}

func NewPropertySet(name string) PropertySet {
	return PropertySet{
		name:       name,
		properties: map[string]string{},
	}
}

func NewPropertySetWithProperties(name string, properties map[string]string) PropertySet {
	set := NewPropertySet(name)
	for key, value := range properties {
		set.Set(key, value)
	}
	return set
}

func (set PropertySet) Name() string {
	return set.name
}

func (set *PropertySet) Set(key string, value string) {
	if set.properties == nil {
		set.properties = map[string]string{}
	}
	set.properties[key] = value
}

func (set PropertySet) Get(key string) (string, bool) {
	value, ok := set.properties[key]
	return value, ok
}

func (set PropertySet) Keys() []string {
	keys := make([]string, 0, len(set.properties))
	for key := range set.properties {
		keys = append(keys, key)
	}
	return keys
}

func (set PropertySet) Len() int {
	return len(set.properties)
}

// AsMap returns a copy; changes to it do not affect the set.
func (set PropertySet) AsMap() map[string]string {
	snapshot := make(map[string]string, len(set.properties))
	for key, value := range set.properties {
		snapshot[key] = value
	}
	return snapshot
}

func (set PropertySet) String() string {
	return set.name + string(set.ToJSON())
}

func (set PropertySet) ToJSON() []byte {
	encoded, _ := json.Marshal(set.AsMap())
	return encoded
}

func NewPropertiesFromJSON(encoded []byte) (map[string]string, error) {
	var properties map[string]string
	err := json.Unmarshal(encoded, &properties)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = map[string]string{}
	}
	return properties, nil
}
