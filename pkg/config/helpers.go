package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/rpmirror/pkg/errors"
)

// SetValue sets a configuration value by its dotted YAML key, e.g.
// "updates_dir" or "settings.workers". Arch lists take a comma-separated
// value. The result is not validated.
func (c *Config) SetValue(key, value string) error {
	f, ok := c.field(key)
	if !ok {
		return fmt.Errorf("%s: %w", key, errors.ErrUnknownConfigKey)
	}

	switch f.Interface().(type) {
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s: %w", key, value, errors.ErrConfigValidation)
		}
		f.SetInt(int64(d))
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %s: %w", key, value, errors.ErrConfigValidation)
		}
		f.SetInt(int64(n))
	case []string:
		var list []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				list = append(list, v)
			}
		}
		f.Set(reflect.ValueOf(list))
	default:
		f.SetString(value)
	}
	return nil
}

// GetValue returns the value of a dotted YAML key as a string.
func (c *Config) GetValue(key string) (string, error) {
	f, ok := c.field(key)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errors.ErrUnknownConfigKey)
	}
	return format(f), nil
}

// ToMap flattens the configuration into dotted YAML keys.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)
	walk(reflect.ValueOf(c).Elem(), "", func(key string, v reflect.Value) {
		result[key] = format(v)
	})
	return result
}

func (c *Config) field(key string) (reflect.Value, bool) {
	var found reflect.Value
	walk(reflect.ValueOf(c).Elem(), "", func(k string, v reflect.Value) {
		if k == key {
			found = v
		}
	})
	return found, found.IsValid()
}

func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

func walk(v reflect.Value, prefix string, visit func(string, reflect.Value)) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		key := yamlKey(t.Field(i))
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct {
			walk(fv, key, visit)
			continue
		}
		visit(key, fv)
	}
}

func format(v reflect.Value) string {
	switch x := v.Interface().(type) {
	case time.Duration:
		return x.String()
	case []string:
		return strings.Join(x, ",")
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.String:
		return v.String()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
