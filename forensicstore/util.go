// Copyright (c) 2019 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package forensicstore

import (
	"reflect"
	"strconv"

	"github.com/stoewer/go-strcase"
)

var hashNames = map[string]bool{
	"MD5":     true,
	"SHA-1":   true,
	"SHA-256": true,
	"SHA-512": true,
	"SSDEEP":  true,
}

// lower converts the keys of struct maps to snake case and drops empty
// values. Hash algorithm names keep their spelling.
func lower(f interface{}) interface{} {
	switch f := f.(type) {
	case []interface{}:
		for i := range f {
			if !isEmptyValue(reflect.ValueOf(f[i])) {
				f[i] = lower(f[i])
			}
		}
		return f
	case map[string]interface{}:
		lf := make(map[string]interface{}, len(f))
		for k, v := range f {
			if isEmptyValue(reflect.ValueOf(v)) {
				continue
			}
			if hashNames[k] {
				lf[k] = lower(v)
			} else {
				lf[strcase.SnakeCase(k)] = lower(v)
			}
		}
		return lf
	default:
		return f
	}
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}

// flatten returns the dotted paths of all leaf values of an element, e.g.
// origin.path or hashes.MD5.
func flatten(prefix string, nested interface{}) map[string]interface{} {
	flat := map[string]interface{}{}
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	switch nested := nested.(type) {
	case map[string]interface{}:
		for key, value := range nested {
			for k, v := range flatten(join(key), value) {
				flat[k] = v
			}
		}
	case []interface{}:
		for i, value := range nested {
			for k, v := range flatten(join(strconv.Itoa(i)), value) {
				flat[k] = v
			}
		}
	case nil:
	default:
		flat[prefix] = nested
	}
	return flat
}
