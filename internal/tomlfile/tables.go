package tomlfile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

// CollisionPolicy decides what happens when a table is needed where a
// non-table value already lives.
type CollisionPolicy int

const (
	// Replace overwrites the value with an empty table.
	Replace CollisionPolicy = iota
	// Raise returns a NonTableKeyCollisionError.
	Raise
)

// NonTableKeyCollisionError reports a key that holds a non-table value.
type NonTableKeyCollisionError struct {
	Key string
}

func (e *NonTableKeyCollisionError) Error() string {
	return fmt.Sprintf("key %q already exists and is not a table", e.Key)
}

// GetOrTable returns the table at key, creating it when missing.
func GetOrTable(t map[string]any, key string, policy CollisionPolicy) (map[string]any, error) {
	existing, ok := t[key]
	if !ok {
		table := map[string]any{}
		t[key] = table

		return table, nil
	}

	if table, ok := existing.(map[string]any); ok {
		return table, nil
	}

	if policy == Raise {
		return nil, &NonTableKeyCollisionError{Key: key}
	}

	table := map[string]any{}
	t[key] = table

	return table, nil
}

// UpdateValues merges data into t. Nested maps are merged into tables,
// creating them as needed; every other value overwrites.
func UpdateValues(t map[string]any, data map[string]any, policy CollisionPolicy) error {
	for key, value := range data {
		nested, ok := value.(map[string]any)
		if !ok {
			t[key] = value
			continue
		}

		table, err := GetOrTable(t, key, policy)
		if err != nil {
			return err
		}

		if err := UpdateValues(table, nested, policy); err != nil {
			return err
		}
	}

	return nil
}

// UpdateValue sets the value at keyChain, creating intermediate tables.
func UpdateValue(t map[string]any, keyChain []string, value any, policy CollisionPolicy) error {
	if len(keyChain) == 0 {
		return fmt.Errorf("empty key chain")
	}

	current := t

	for _, key := range keyChain[:len(keyChain)-1] {
		next, err := GetOrTable(current, key, policy)
		if err != nil {
			return err
		}

		current = next
	}

	current[keyChain[len(keyChain)-1]] = value

	return nil
}

// UpdateFile merges data into the TOML file at path. When every value
// lands on an existing scalar the file is edited in place.
func UpdateFile(path string, data map[string]any, policy CollisionPolicy) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, ok, err := setAllInPlace(raw, nil, data)
	if err != nil {
		return err
	}

	if ok {
		if _, err := Parse(out); err != nil {
			return err
		}

		if err := renameio.WriteFile(path, out, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		return nil
	}

	return Manage(path, func(doc Document) error {
		return UpdateValues(doc, data, policy)
	})
}

func setAllInPlace(raw []byte, prefix []string, data map[string]any) ([]byte, bool, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		chain := append(append([]string{}, prefix...), k)

		var (
			ok  bool
			err error
		)

		if nested, isTable := data[k].(map[string]any); isTable {
			raw, ok, err = setAllInPlace(raw, chain, nested)
		} else {
			raw, ok, err = SetInPlace(raw, chain, data[k])
		}

		if err != nil || !ok {
			return raw, false, err
		}
	}

	return raw, true, nil
}

// UpdateFileValue sets one value in the TOML file at path. An existing
// scalar is replaced in place so comments and layout survive; anything else
// rewrites the document.
func UpdateFileValue(path string, keyChain []string, value any, policy CollisionPolicy) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, ok, err := SetInPlace(data, keyChain, value)
	if err != nil {
		return err
	}

	if ok {
		if _, err := Parse(out); err != nil {
			return err
		}

		if err := renameio.WriteFile(path, out, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		return nil
	}

	return Manage(path, func(doc Document) error {
		if err := UpdateValue(doc, keyChain, value, policy); err != nil {
			return fmt.Errorf("set %s: %w", strings.Join(keyChain, "."), err)
		}

		return nil
	})
}

func lookup(t map[string]any, keyChain []string) (any, bool) {
	var current any = t

	for _, key := range keyChain {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		if current, ok = table[key]; !ok {
			return nil, false
		}
	}

	return current, true
}

// GetTable returns the table at keyChain, or nil when the chain runs out
// early or ends on a non-table value.
func GetTable(t map[string]any, keyChain []string) map[string]any {
	v, ok := lookup(t, keyChain)
	if !ok {
		return nil
	}

	table, _ := v.(map[string]any)

	return table
}

// GetItem returns the non-table value at keyChain, or nil.
func GetItem(t map[string]any, keyChain []string) any {
	v, ok := lookup(t, keyChain)
	if !ok {
		return nil
	}

	if _, isTable := v.(map[string]any); isTable {
		return nil
	}

	return v
}
