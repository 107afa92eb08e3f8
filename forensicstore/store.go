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

// Package forensicstore keeps the metadata of collected artifacts in a
// single sqlite file. Every piece of information is stored as a json
// element, files referenced by *_path attributes live next to the store.
package forensicstore

import (
	"crypto/md5"  // #nosec
	"crypto/sha1" // #nosec
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"github.com/fatih/structs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

const storeVersion = 2
const applicationID = 1701602669
const discriminator = "type"

// The Store is the single source of truth of a collection run. It holds an
// element for every collected artifact and every executed tool.
type Store struct {
	fs          afero.Fs
	cursor      *sqlite.Conn
	types       *typeMap
	columnMutex sync.Mutex
}

// ErrStoreExists is returned by New for an existing store.
var ErrStoreExists = errors.New("store already exists")

// ErrStoreNotExists is returned by Open for a missing store.
var ErrStoreNotExists = errors.New("store does not exist")

// New creates a new store.
func New(url string) (*Store, error) {
	return open(url, true)
}

// Open opens an existing store.
func Open(url string) (*Store, error) {
	return open(url, false)
}

// OpenOrCreate opens url and creates it first if it does not exist.
func OpenOrCreate(url string) (*Store, error) {
	store, err := New(url)
	if errors.Is(err, ErrStoreExists) {
		return Open(url)
	}
	return store, err
}

func pragma(conn *sqlite.Conn, name string) (int64, error) {
	stmt, err := conn.Prepare("PRAGMA " + name)
	if err != nil {
		return 0, err
	}
	_, err = stmt.Step()
	if err != nil {
		return 0, err
	}
	i := stmt.GetInt64(name)
	return i, stmt.Finalize()
}

func setPragma(conn *sqlite.Conn, name string, i int64) error {
	stmt, err := conn.Prepare("PRAGMA " + name + " = " + fmt.Sprint(i))
	if err != nil {
		return err
	}
	_, err = stmt.Step()
	if err != nil {
		return err
	}
	return stmt.Finalize()
}

func open(url string, create bool) (*Store, error) { // nolint:gocyclo,funlen
	store := &Store{types: newTypeMap()}

	if url != ":memory:" {
		exists := true
		_, err := os.Stat(url)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			exists = false
		}

		if create && exists {
			return nil, ErrStoreExists
		}
		if !create && !exists {
			return nil, ErrStoreNotExists
		}

		if create {
			err = os.MkdirAll(filepath.Dir(url), 0750)
			if err != nil {
				return nil, err
			}

			log.Printf("Creating store %s", url)
			f, err := os.Create(url)
			if err != nil {
				return nil, err
			}
			f.Close() // nolint:errcheck
		}
		store.fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Dir(url))
	} else {
		store.fs = afero.NewMemMapFs()
	}

	var err error
	store.cursor, err = sqlite.OpenConn(url, 0)
	if err != nil {
		return nil, err
	}

	if create || url == ":memory:" {
		err = setPragma(store.cursor, "application_id", applicationID)
		if err != nil {
			return nil, err
		}

		err = setPragma(store.cursor, "user_version", storeVersion)
		if err != nil {
			return nil, err
		}

		err = store.exec("CREATE VIRTUAL TABLE `elements` " +
			"USING fts5(id UNINDEXED, json, insert_time UNINDEXED, tokenize=\"unicode61 tokenchars '/.'\")")
		if err != nil {
			return nil, err
		}
	} else {
		appID, err := pragma(store.cursor, "application_id")
		if err != nil {
			return nil, err
		}
		if appID != applicationID {
			msg := "wrong file format (application_id is %d, requires %d)"
			return nil, fmt.Errorf(msg, appID, applicationID)
		}

		version, err := pragma(store.cursor, "user_version")
		if err != nil {
			return nil, err
		}
		if version != storeVersion {
			msg := "wrong file format (user_version is %d, requires %d)"
			return nil, fmt.Errorf(msg, version, storeVersion)
		}
	}

	err = store.setupTypes()
	if err != nil {
		return nil, err
	}
	return store, nil
}

// SetFS sets the filesystem that *_path attributes are resolved against.
func (store *Store) SetFS(fs afero.Fs) {
	store.fs = fs
}

/* ################################
#   API
################################ */

// Insert adds a single element. Elements without an id get one.
func (store *Store) Insert(element JSONElement) (string, error) {
	nestedElement := map[string]interface{}{}
	err := json.Unmarshal(element, &nestedElement)
	if err != nil {
		return "", err
	}

	elementType, ok := nestedElement[discriminator].(string)
	if !ok || elementType == "" {
		return "", errors.New("element requires type")
	}
	if _, ok := nestedElement[elementType]; ok {
		return "", fmt.Errorf("element must not contain a field '%s'", elementType)
	}

	id, ok := nestedElement["id"].(string)
	if !ok {
		id = elementType + "--" + uuid.New().String()
		nestedElement["id"] = id

		element, err = json.Marshal(nestedElement)
		if err != nil {
			return "", err
		}
	}

	valErr, err := validateSchema(element)
	if err != nil {
		return "", errors.Wrap(err, "validation failed")
	}
	if len(valErr) > 0 {
		return "", fmt.Errorf("element could not be validated [%s]", strings.Join(valErr, ","))
	}

	store.columnMutex.Lock()
	store.types.addAll(elementType, flatten("", nestedElement))
	store.columnMutex.Unlock()

	stmt, err := store.cursor.Prepare("INSERT INTO `elements` (id, json, insert_time) VALUES ($id, $json, $time)")
	if err != nil {
		return "", errors.Wrap(err, "could not prepare insert")
	}
	stmt.SetText("$id", id)
	stmt.SetText("$json", string(element))
	stmt.SetText("$time", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	_, err = stmt.Step()
	if err != nil {
		return "", errors.Wrap(err, "could not insert element")
	}
	return id, stmt.Finalize()
}

// InsertStruct converts a Go struct to an element and inserts it. Field
// names are converted to snake case, empty fields are dropped.
func (store *Store) InsertStruct(element interface{}) (string, error) {
	m := structs.Map(element)
	b, err := json.Marshal(lower(m))
	if err != nil {
		return "", err
	}
	return store.Insert(b)
}

// Get retrieves a single element.
func (store *Store) Get(id string) (JSONElement, error) {
	stmt, err := store.cursor.Prepare("SELECT json FROM `elements` WHERE id = $id")
	if err != nil {
		return nil, err
	}
	stmt.SetText("$id", id)

	elements, err := store.rowsToElements(stmt)
	if err != nil {
		return nil, err
	}
	if len(elements) > 0 {
		return elements[0], nil
	}
	return nil, errors.New("element does not exist")
}

// Query executes a sql query that returns a json column.
func (store *Store) Query(query string) ([]JSONElement, error) {
	stmt, err := store.cursor.Prepare(query)
	if err != nil {
		return nil, err
	}
	return store.rowsToElements(stmt)
}

// Select retrieves all elements that match any of the conditions. The
// values of a condition are LIKE patterns.
func (store *Store) Select(conditions []map[string]string) ([]JSONElement, error) {
	var ors []string
	var values []string
	for _, condition := range conditions {
		keys := make([]string, 0, len(condition))
		for key := range condition {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var ands []string
		for _, key := range keys {
			ands = append(ands, fmt.Sprintf("json_extract(json, '$.%s') LIKE ?", key))
			values = append(values, condition[key])
		}
		if len(ands) > 0 {
			ors = append(ors, "("+strings.Join(ands, " AND ")+")")
		}
	}

	query := "SELECT json FROM `elements`"
	if len(ors) > 0 {
		query += " WHERE " + strings.Join(ors, " OR ") // #nosec
	}

	stmt, err := store.cursor.Prepare(query)
	if err != nil {
		return nil, err
	}
	for i, value := range values {
		stmt.BindText(i+1, value)
	}
	return store.rowsToElements(stmt)
}

// Search runs a full text query over all elements.
func (store *Store) Search(q string) ([]JSONElement, error) {
	stmt, err := store.cursor.Prepare("SELECT json FROM `elements` WHERE elements = $query")
	if err != nil {
		return nil, err
	}
	stmt.SetText("$query", q)
	return store.rowsToElements(stmt)
}

// All returns every element.
func (store *Store) All() ([]JSONElement, error) {
	return store.Select(nil)
}

// Close creates a view per element type and closes the database.
func (store *Store) Close() error {
	if store.types.changed {
		if err := store.createViews(); err != nil {
			log.Printf("could not create views: %s", err)
		}
	}
	return store.cursor.Close()
}

func (store *Store) createViews() error {
	for typeName, fields := range store.types.all() {
		err := store.exec(fmt.Sprintf("DROP VIEW IF EXISTS '%s'", typeName))
		if err != nil {
			return err
		}
		var columns []string
		for field := range fields {
			columns = append(columns, fmt.Sprintf("json_extract(json, '$.%s') as '%s'", field, field))
		}
		sort.Strings(columns)
		err = store.exec(
			fmt.Sprintf("CREATE VIEW '%s' AS SELECT %s FROM elements WHERE json_extract(json, '$.%s') = '%s'",
				typeName, strings.Join(columns, ", "), discriminator, typeName),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

/* ################################
#   Validate
################################ */

// Validate checks every element against its schema and verifies the files
// referenced by *_path attributes.
func (store *Store) Validate() (flaws []string, err error) {
	flaws = []string{}

	elements, err := store.All()
	if err != nil {
		return nil, err
	}
	for _, element := range elements {
		elementFlaws, err := store.validateElement(element)
		if err != nil {
			return nil, err
		}
		flaws = append(flaws, elementFlaws...)
	}
	return flaws, nil
}

func (store *Store) validateElement(element JSONElement) (flaws []string, err error) { // nolint:gocyclo
	flaws, err = validateSchema(element)
	if err != nil {
		return nil, err
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(element, &fields); err != nil {
		return nil, err
	}

	for field, value := range fields {
		if !strings.HasSuffix(field, "_path") {
			continue
		}
		exportPath, ok := value.(string)
		if !ok {
			flaws = append(flaws, fmt.Sprintf("%s is not a string", field))
			continue
		}
		if strings.Contains(exportPath, "..") {
			flaws = append(flaws, fmt.Sprintf("'..' in %s", exportPath))
			continue
		}

		exists, err := afero.Exists(store.fs, exportPath)
		if err != nil {
			return nil, err
		}
		if !exists {
			flaws = append(flaws, fmt.Sprintf("missing file %s", exportPath))
			continue
		}

		if field != "export_path" {
			continue
		}

		if size, ok := fields["size"].(float64); ok {
			fi, err := store.fs.Stat(exportPath)
			if err != nil {
				return nil, err
			}
			if int64(size) != fi.Size() {
				flaws = append(flaws, fmt.Sprintf("wrong size for %s (is %d, expected %d)", exportPath, fi.Size(), int64(size)))
			}
		}

		hashes, _ := fields["hashes"].(map[string]interface{})
		for algorithm, value := range hashes {
			var h hash.Hash
			switch algorithm {
			case "MD5":
				h = md5.New() // #nosec
			case "SHA-1", "SHA1":
				h = sha1.New() // #nosec
			default:
				flaws = append(flaws, fmt.Sprintf("unsupported hash %s for %s", algorithm, exportPath))
				continue
			}

			f, err := store.fs.Open(exportPath)
			if err != nil {
				return nil, err
			}
			_, err = io.Copy(h, f)
			f.Close() // nolint:errcheck
			if err != nil {
				return nil, err
			}

			if fmt.Sprintf("%x", h.Sum(nil)) != value {
				flaws = append(flaws, fmt.Sprintf("hashvalue mismatch %s for %s", algorithm, exportPath))
			}
		}
	}

	if len(flaws) > 0 {
		id := gjson.GetBytes(element, "id").String()
		for i := range flaws {
			flaws[i] = id + ": " + flaws[i]
		}
	}
	return flaws, nil
}

/* ################################
#   Intern
################################ */

func (store *Store) rowsToElements(stmt *sqlite.Stmt) (elements []JSONElement, err error) {
	elements = []JSONElement{}
	for {
		if hasRow, err := stmt.Step(); err != nil {
			return nil, err
		} else if !hasRow {
			break
		}
		elements = append(elements, JSONElement(stmt.GetText("json")))
	}
	return elements, stmt.Finalize()
}

func isElementTable(name string) bool {
	if strings.HasPrefix(name, "sqlite") || strings.HasPrefix(name, "_") {
		return false
	}
	if name == "elements" {
		return false
	}
	for _, suffix := range []string{"_data", "_idx", "_content", "_docsize", "_config"} {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return true
}

// setupTypes loads the columns of existing views so reopening a store
// keeps them.
func (store *Store) setupTypes() error {
	stmt, err := store.cursor.Prepare("SELECT name FROM sqlite_master WHERE type = 'view'")
	if err != nil {
		return err
	}

	var names []string
	for {
		if hasRow, err := stmt.Step(); err != nil {
			return err
		} else if !hasRow {
			break
		}
		if name := stmt.GetText("name"); isElementTable(name) {
			names = append(names, name)
		}
	}
	if err := stmt.Finalize(); err != nil {
		return err
	}

	for _, name := range names {
		pragmaStmt, err := store.cursor.Prepare(fmt.Sprintf("PRAGMA table_info (\"%s\")", name))
		if err != nil {
			return err
		}
		for {
			if hasRow, err := pragmaStmt.Step(); err != nil {
				return err
			} else if !hasRow {
				break
			}
			store.types.add(name, pragmaStmt.GetText("name"))
		}
		if err := pragmaStmt.Finalize(); err != nil {
			return err
		}
	}
	store.types.changed = false
	return nil
}

func (store *Store) exec(query string) error {
	stmt, err := store.cursor.Prepare(query)
	if err != nil {
		return err
	}
	_, err = stmt.Step()
	if err != nil {
		return err
	}
	return stmt.Finalize()
}
