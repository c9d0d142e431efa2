// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package iceberg

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync/atomic"
)

// Schema is an Iceberg table schema, represented as a flat list of
// primitive fields. The fields are only exported via accessor methods
// rather than exposing the slice directly in order to keep a schema
// immutable.
type Schema struct {
	ID                 int   `json:"schema-id"`
	IdentifierFieldIDs []int `json:"identifier-field-ids"`

	fields []NestedField

	// the following maps are lazily populated as needed.
	// rather than have lock contention with a mutex, we can use
	// atomic pointers to Store/Load the values.
	idToName      atomic.Pointer[map[int]string]
	idToField     atomic.Pointer[map[int]NestedField]
	nameToID      atomic.Pointer[map[string]int]
	nameToIDLower atomic.Pointer[map[string]int]
}

// NewSchemaFromJsonFields constructs a new schema with the provided ID and fields in json form
func NewSchemaFromJsonFields(id int, jsonFieldsStr string) (*Schema, error) {
	var fields []NestedField
	if err := json.Unmarshal([]byte(jsonFieldsStr), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}

	return NewSchema(id, fields...), nil
}

// NewSchema constructs a new schema with the provided ID
// and list of fields.
func NewSchema(id int, fields ...NestedField) *Schema {
	return NewSchemaWithIdentifiers(id, []int{}, fields...)
}

// NewSchemaWithIdentifiers constructs a new schema with the provided ID
// and fields, along with a slice of field IDs to be listed as identifier
// fields.
func NewSchemaWithIdentifiers(id int, identifierIDs []int, fields ...NestedField) *Schema {
	return &Schema{ID: id, fields: fields, IdentifierFieldIDs: identifierIDs}
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("table {")
	for _, f := range s.fields {
		b.WriteString("\n\t")
		b.WriteString(f.String())
	}
	b.WriteString("\n}")

	return b.String()
}

func (s *Schema) lazyIDToField() map[int]NestedField {
	if index := s.idToField.Load(); index != nil {
		return *index
	}

	idx := make(map[int]NestedField, len(s.fields))
	for _, f := range s.fields {
		idx[f.ID] = f
	}
	s.idToField.Store(&idx)

	return idx
}

func (s *Schema) lazyIDToName() map[int]string {
	if index := s.idToName.Load(); index != nil {
		return *index
	}

	idx := make(map[int]string, len(s.fields))
	for _, f := range s.fields {
		idx[f.ID] = f.Name
	}
	s.idToName.Store(&idx)

	return idx
}

func (s *Schema) lazyNameToID() map[string]int {
	if index := s.nameToID.Load(); index != nil {
		return *index
	}

	idx := make(map[string]int, len(s.fields))
	for _, f := range s.fields {
		idx[f.Name] = f.ID
	}
	s.nameToID.Store(&idx)

	return idx
}

func (s *Schema) lazyNameToIDLower() map[string]int {
	if index := s.nameToIDLower.Load(); index != nil {
		return *index
	}

	out := make(map[string]int, len(s.fields))
	for k, v := range s.lazyNameToID() {
		out[strings.ToLower(k)] = v
	}
	s.nameToIDLower.Store(&out)

	return out
}

func (s *Schema) Type() string { return "struct" }

func (s *Schema) NumFields() int          { return len(s.fields) }
func (s *Schema) Field(i int) NestedField { return s.fields[i] }
func (s *Schema) Fields() []NestedField   { return slices.Clone(s.fields) }

// FieldIDs returns the ids of every field in the schema, in field order.
func (s *Schema) FieldIDs() []int {
	ids := make([]int, len(s.fields))
	for i, f := range s.fields {
		ids[i] = f.ID
	}

	return ids
}

// FieldIDToName returns a copy of the field id to column name index.
func (s *Schema) FieldIDToName() map[int]string {
	return maps.Clone(s.lazyIDToName())
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	type Alias Schema
	aux := struct {
		Fields []NestedField `json:"fields"`
		*Alias
	}{Alias: (*Alias)(s)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	s.fields = aux.Fields
	if s.IdentifierFieldIDs == nil {
		s.IdentifierFieldIDs = []int{}
	}

	return nil
}

func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.IdentifierFieldIDs == nil {
		s.IdentifierFieldIDs = []int{}
	}

	type Alias Schema

	return json.Marshal(struct {
		Type   string        `json:"type"`
		Fields []NestedField `json:"fields"`
		*Alias
	}{Type: "struct", Fields: s.fields, Alias: (*Alias)(s)})
}

// FindColumnName returns the name of the column identified by the
// passed in field id. The second return value reports whether or
// not the field id was found in the schema.
func (s *Schema) FindColumnName(fieldID int) (string, bool) {
	col, ok := s.lazyIDToName()[fieldID]

	return col, ok
}

// FindFieldByName returns the field identified by the name given,
// the second return value will be false if no field by this name
// is found.
//
// Note: This search is done in a case sensitive manner. To perform
// a case insensitive search, use [*Schema.FindFieldByNameCaseInsensitive].
func (s *Schema) FindFieldByName(name string) (NestedField, bool) {
	id, ok := s.lazyNameToID()[name]
	if !ok {
		return NestedField{}, false
	}

	return s.FindFieldByID(id)
}

// FindFieldByNameCaseInsensitive is like [*Schema.FindFieldByName],
// but performs a case insensitive search.
func (s *Schema) FindFieldByNameCaseInsensitive(name string) (NestedField, bool) {
	id, ok := s.lazyNameToIDLower()[strings.ToLower(name)]
	if !ok {
		return NestedField{}, false
	}

	return s.FindFieldByID(id)
}

// FindFieldByID is like [*Schema.FindColumnName], but returns the whole
// field rather than just the field name.
func (s *Schema) FindFieldByID(id int) (NestedField, bool) {
	f, ok := s.lazyIDToField()[id]

	return f, ok
}

// FindTypeByID is like [*Schema.FindFieldByID], but returns only the data
// type of the field.
func (s *Schema) FindTypeByID(id int) (Type, bool) {
	f, ok := s.FindFieldByID(id)
	if !ok {
		return nil, false
	}

	return f.Type, true
}

// Equals compares the fields and identifierIDs, but does not compare
// the schema ID itself.
func (s *Schema) Equals(other *Schema) bool {
	if other == nil {
		return false
	}

	if s == other {
		return true
	}

	if len(s.fields) != len(other.fields) {
		return false
	}

	if !slices.Equal(s.IdentifierFieldIDs, other.IdentifierFieldIDs) {
		return false
	}

	return slices.EqualFunc(s.fields, other.fields, func(a, b NestedField) bool {
		return a.Equals(b)
	})
}

// Select creates a new schema with just the fields identified by id,
// in the order they are provided. Unknown ids are an error.
func (s *Schema) Select(ids ...int) (*Schema, error) {
	out := make([]NestedField, 0, len(ids))
	for _, id := range ids {
		f, ok := s.FindFieldByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: could not find field id %d", ErrInvalidSchema, id)
		}
		out = append(out, f)
	}

	return NewSchema(s.ID, out...), nil
}
