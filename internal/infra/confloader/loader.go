package confloader

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "MINIKV_"

// Loader merges configuration sources into a tagged struct.
type Loader struct {
	envPrefix string
	filePath  string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// WithConfigFile sets the YAML file to read. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithOverrides sets values applied after every other source. Keys are
// dotted paths such as "server.redis.addr".
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) { l.overrides = values }
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fills target, a pointer to a struct with koanf tags. Fields keep
// their current value unless a source sets them; the file is applied
// first, then the environment, then the overrides.
func (l *Loader) Load(target any) error {
	k := koanf.New(".")

	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	envPaths := make(map[string]string)
	for _, key := range KeysOf(target) {
		envPaths[strings.ReplaceAll(key, ".", "_")] = key
	}
	mapKey := func(name string) string {
		name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
		if key, ok := envPaths[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", ".")
	}
	if err := k.Load(env.Provider(l.envPrefix, ".", mapKey), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := k.Load(mapProvider(maps.Unflatten(l.overrides, ".")), nil); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := k.Unmarshal("", target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// KeysOf returns the dotted koanf key of every leaf field in the struct
// that v points to. Nested structs other than time types are descended.
func KeysOf(v any) []string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	walkFields(t, "", func(key string) { keys = append(keys, key) })
	return keys
}

func walkFields(t reflect.Type, prefix string, visit func(string)) {
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		if prefix != "" {
			tag = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() != "time" {
			walkFields(f.Type, tag, visit)
		} else {
			visit(tag)
		}
	}
}
