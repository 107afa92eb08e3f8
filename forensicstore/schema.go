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
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/qri-io/jsonschema"
	"github.com/tidwall/gjson"
)

// schemaSources holds the json schemas of the element types this store
// knows. Elements of other types are stored without validation.
var schemaSources = map[string]string{
	"file": `{
		"title": "file",
		"type": "object",
		"required": ["id", "type", "name"],
		"properties": {
			"id": {"type": "string", "pattern": "^file--"},
			"type": {"enum": ["file"]},
			"artifact": {"type": "string"},
			"name": {"type": "string", "minLength": 1},
			"size": {"type": "number", "minimum": 0},
			"ctime": {"type": "string"},
			"mtime": {"type": "string"},
			"atime": {"type": "string"},
			"hashes": {"type": "object", "additionalProperties": {"type": "string"}},
			"origin": {"type": "object"},
			"export_path": {"type": "string"},
			"errors": {"type": "array"}
		}
	}`,
	"process": `{
		"title": "process",
		"type": "object",
		"required": ["id", "type"],
		"properties": {
			"id": {"type": "string", "pattern": "^process--"},
			"type": {"enum": ["process"]},
			"artifact": {"type": "string"},
			"name": {"type": "string"},
			"created_time": {"type": "string"},
			"cwd": {"type": "string"},
			"arguments": {"type": "array", "items": {"type": "string"}},
			"command_line": {"type": "string"},
			"stdout_path": {"type": "string"},
			"stderr_path": {"type": "string"},
			"return_code": {"type": "number"},
			"errors": {"type": "array"}
		}
	}`,
}

var (
	schemas     map[string]*jsonschema.Schema
	schemasOnce sync.Once
	schemasErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = map[string]*jsonschema.Schema{}
		for name, content := range schemaSources {
			schema := &jsonschema.Schema{}
			if err := json.Unmarshal([]byte(content), schema); err != nil {
				schemasErr = fmt.Errorf("unmarshal error %s: %w", name, err)
				return
			}
			schemas[name] = schema
		}
	})
	return schemas, schemasErr
}

func validateSchema(element JSONElement) (flaws []string, err error) {
	elementType := gjson.GetBytes(element, discriminator)
	if !elementType.Exists() {
		return []string{"element needs to have a type"}, nil
	}

	all, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	schema, ok := all[elementType.String()]
	if !ok {
		return nil, nil
	}

	errs, err := schema.ValidateBytes(context.Background(), element)
	if err != nil {
		return nil, err
	}
	for _, verr := range errs {
		flaws = append(flaws, fmt.Sprintf("failed to validate element: %s", verr.Error()))
	}
	return flaws, nil
}
