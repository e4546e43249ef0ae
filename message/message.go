// Copyright 2025 Split Sig

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package message

import (
	"encoding/json"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Message is the primitive building block of a JSON-based configuration. It
// typically represents a JSON object, implemented by a struct pointer holding
// the expected fields, e.g.:
//
//	type Experiment struct {
//	  Name string `json:"name" required:"true"`
//	  Seed uint64 `json:"seed" default:"42"`
//	  Side string `json:"sidedness" choices:"one-sided,two-sided"`
//	}
//
//	func (e *Experiment) InitMessage(js any) error {
//	  return message.Init(e, js)
//	}
type Message interface {
	// InitMessage converts a generic JSON value read by the encoding/json
	// package into the specific message: checks required fields, sets defaults
	// of optional fields, and rejects unrecognized fields.
	InitMessage(js any) error
}

var messageType = reflect.TypeOf((*Message)(nil)).Elem()

// initMessageValue creates and initializes a new Message of the pointer type t
// from the JSON value jv.
func initMessageValue(jv any, t reflect.Type) (reflect.Value, error) {
	var none reflect.Value
	if t.Kind() != reflect.Ptr {
		return none, errors.Reason(
			"type %s implements Message but is not a pointer", t.Name())
	}
	ptr := reflect.New(t.Elem())
	if err := ptr.Interface().(Message).InitMessage(jv); err != nil {
		return none, errors.Annotate(err, "%s.InitMessage() failed", t.Name())
	}
	return ptr, nil
}

// assign recursively converts a raw JSON value to the target type: basic
// types, slices, string-keyed maps and (pointers to) Message implementations.
// A nil jv produces the zero value, or the default-initialized Message.
func assign(jv any, t reflect.Type) (reflect.Value, error) {
	var none reflect.Value
	if t.Implements(messageType) {
		if jv == nil {
			return reflect.Zero(t), nil
		}
		return initMessageValue(jv, t)
	}
	if reflect.PtrTo(t).Implements(messageType) {
		if jv == nil {
			jv = make(map[string]any) // force defaults
		}
		ptr, err := initMessageValue(jv, reflect.PtrTo(t))
		if err != nil {
			return none, err
		}
		return reflect.Indirect(ptr), nil
	}
	if jv == nil {
		return reflect.Zero(t), nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		v, err := assign(jv, t.Elem())
		if err != nil {
			return none, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.Bool:
		b, ok := jv.(bool)
		if !ok {
			return none, errors.Reason("not a bool: %v", jv)
		}
		return reflect.ValueOf(b), nil
	case reflect.Int:
		f, ok := jv.(float64)
		if !ok {
			return none, errors.Reason("not a number: %v", jv)
		}
		return reflect.ValueOf(int(f)), nil
	case reflect.Uint64:
		f, ok := jv.(float64)
		if !ok {
			return none, errors.Reason("not a number: %v", jv)
		}
		return reflect.ValueOf(uint64(f)), nil
	case reflect.Float64:
		f, ok := jv.(float64)
		if !ok {
			return none, errors.Reason("not a number: %v", jv)
		}
		return reflect.ValueOf(f), nil
	case reflect.String:
		s, ok := jv.(string)
		if !ok {
			return none, errors.Reason("not a string: %v", jv)
		}
		return reflect.ValueOf(s), nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return none, errors.Reason("map[%s] is not supported", t.Key().Kind())
		}
		m, ok := jv.(map[string]any)
		if !ok {
			return none, errors.Reason("not a map[string]: %v", jv)
		}
		res := reflect.MakeMap(t)
		for k, v := range m {
			el, err := assign(v, t.Elem())
			if err != nil {
				return none, err
			}
			res.SetMapIndex(reflect.ValueOf(k), el)
		}
		return res, nil
	case reflect.Slice:
		sl, ok := jv.([]any)
		if !ok {
			return none, errors.Reason("not a slice: %v", jv)
		}
		res := reflect.MakeSlice(t, len(sl), len(sl))
		for i, v := range sl {
			el, err := assign(v, t.Elem())
			if err != nil {
				return none, err
			}
			res.Index(i).Set(el)
		}
		return res, nil
	}
	return none, errors.Reason("unsupported type: %s", t.Name())
}

// parseDefault converts a `default:` tag string to the type t.
func parseDefault(s string, t reflect.Type) (reflect.Value, error) {
	var none reflect.Value
	switch t.Kind() {
	case reflect.Ptr:
		v, err := parseDefault(s, t.Elem())
		if err != nil {
			return none, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return none, errors.Annotate(err, "invalid bool value: %s", s)
		}
		return reflect.ValueOf(b), nil
	case reflect.Int:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return none, errors.Annotate(err, "invalid int value: %s", s)
		}
		return reflect.ValueOf(int(i)), nil
	case reflect.Uint64:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return none, errors.Annotate(err, "invalid uint value: %s", s)
		}
		return reflect.ValueOf(u), nil
	case reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return none, errors.Annotate(err, "invalid float64 value: %s", s)
		}
		return reflect.ValueOf(f), nil
	case reflect.String:
		return reflect.ValueOf(s), nil
	}
	return none, errors.Reason("type %s cannot have a default tag", t.Name())
}

// setField assigns v to the struct field and enforces the `choices:` tag.
func setField(f reflect.StructField, fv reflect.Value, v reflect.Value) error {
	if choices, ok := f.Tag.Lookup("choices"); ok {
		if f.Type.Kind() != reflect.String {
			return errors.Reason("choices tag on a non-string field: %s", f.Name)
		}
		s := v.Interface().(string)
		if !StringIn(s, strings.Split(choices, ",")...) {
			return errors.Reason("value for %s is not in its choice list: '%s'",
				f.Name, s)
		}
	}
	fv.Set(v)
	return nil
}

// jsonName extracts the JSON key for a struct field, or "" when the field is
// not part of the message.
func jsonName(f reflect.StructField) string {
	first, _ := utf8.DecodeRuneInString(f.Name)
	if !unicode.IsUpper(first) {
		return ""
	}
	name := f.Name
	if tag := f.Tag.Get("json"); tag != "" {
		parts := strings.Split(tag, ",")
		if parts[0] == "-" {
			return ""
		}
		if parts[0] != "" {
			name = parts[0]
		}
	}
	return name
}

// Init is the generic workhorse behind most InitMessage implementations. It
// expects m to be a struct pointer and js a map[string]any as produced by
// encoding/json. Recognized struct tags:
//
//	`json:"field_name" required:"true" default:"value" choices:"a,b,c"`
//
// The json tag stays compatible with encoding/json, so the same struct can be
// marshaled back into message-compatible JSON. The choices tag is supported
// for string fields only.
func Init(m Message, js any) error {
	rt := reflect.TypeOf(m)
	if !(rt.Kind() == reflect.Ptr && rt.Elem().Kind() == reflect.Struct) {
		return errors.Reason(
			"expected Message instance to be a struct pointer, but got %s",
			rt.Name())
	}
	if js == nil {
		return errors.Reason("JSON object is nil")
	}
	jsMap, ok := js.(map[string]any)
	if !ok {
		return errors.Reason("JSON object is not a map: %v", js)
	}

	rt = rt.Elem()
	rv := reflect.ValueOf(m).Elem()
	found := make(map[string]struct{})
	var missing []string
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		fv := rv.FieldByName(f.Name)
		if jv, ok := jsMap[name]; ok {
			found[name] = struct{}{}
			v, err := assign(jv, f.Type)
			if err != nil {
				return errors.Annotate(err, "error assigning field %s", f.Name)
			}
			if err := setField(f, fv, v); err != nil {
				return err
			}
			continue
		}
		if f.Tag.Get("required") == "true" {
			missing = append(missing, name)
			continue
		}
		if defaultVal, ok := f.Tag.Lookup("default"); ok {
			v, err := parseDefault(defaultVal, f.Type)
			if err != nil {
				return errors.Annotate(err, "error setting default value for %s", f.Name)
			}
			if err := setField(f, fv, v); err != nil {
				return err
			}
			continue
		}
		// Neither set nor defaulted: zero value, still checked against choices.
		v, err := assign(nil, f.Type)
		if err != nil {
			return errors.Annotate(err, "error creating zero value for %s", f.Name)
		}
		if err := setField(f, fv, v); err != nil {
			return errors.Annotate(err, "error setting zero value for %s", f.Name)
		}
	}
	if len(missing) != 0 {
		return errors.Reason("missing required fields: %s",
			strings.Join(missing, ", "))
	}
	var extra []string
	for k := range jsMap {
		if _, ok := found[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) != 0 {
		sort.Strings(extra)
		return errors.Reason("unsupported fields for %s: %s",
			rt.Name(), strings.Join(extra, ", "))
	}
	return nil
}

// FromJSON initializes the message from raw JSON bytes.
func FromJSON(m Message, data []byte) error {
	var js any
	if err := json.Unmarshal(data, &js); err != nil {
		return errors.Annotate(err, "failed to parse JSON")
	}
	return m.InitMessage(js)
}

// FromFile reads a JSON file and initializes the message from its contents.
func FromFile(m Message, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotate(err, "failed to read file '%s'", path)
	}
	return errors.Annotate(FromJSON(m, data), "failed to init from file '%s'", path)
}

// StringIn checks that s equals one of the values.
func StringIn(s string, values ...string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
