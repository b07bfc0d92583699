package config

import (
	"reflect"
	"sort"
	"strings"

	"github.com/yndnr/drawdoc/internal/infra/confloader"
)

// KnownKeys returns every dotted key Config accepts, sections included.
func KnownKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	sort.Strings(keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		*keys = append(*keys, name)
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, name, keys)
		}
	}
}

// UnknownKeys returns the keys in the loader's configuration file that
// Config does not define, usually misspellings.
func UnknownKeys(loader *confloader.Loader) ([]string, error) {
	fileKeys, err := loader.FileKeys()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	for _, k := range KnownKeys() {
		known[k] = true
	}

	var unknown []string
	for _, k := range fileKeys {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	return unknown, nil
}
