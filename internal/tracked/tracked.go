// Package tracked implements the tracked-field reflection/export
// framework used to expose a driver.Source's observable state to higher
// layers (the CLI's "status" command, future dashboards) without those
// callers reaching into the driver's mutex-guarded fields directly.
package tracked

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const tagName = "tracked"

// Snapshot walks v (a struct or a pointer to one) via reflect and
// produces a map keyed by each field's `tracked:"name"` tag, or its Go
// field name lowercased if the tag is absent. Fields tagged
// `tracked:"-"` are skipped. Nested structs are flattened one level deep
// into the same map under "parent.child" keys; anything deeper is left
// as the struct value itself.
func Snapshot(v interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return out
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return out
	}
	walk(rv, "", out)
	return out
}

func walk(rv reflect.Value, prefix string, out map[string]interface{}) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name, opts := parseTag(field)
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				if !opts.omitempty {
					out[name] = nil
				}
				continue
			}
			fv = fv.Elem()
		}

		if fv.Kind() == reflect.Struct && prefix == "" && isFlattenable(fv.Type()) {
			walk(fv, name, out)
			continue
		}

		if opts.omitempty && isZero(fv) {
			continue
		}

		out[name] = fv.Interface()
	}
}

type tagOpts struct {
	omitempty bool
}

func parseTag(field reflect.StructField) (string, tagOpts) {
	raw, ok := field.Tag.Lookup(tagName)
	if !ok {
		return "", tagOpts{}
	}
	parts := strings.Split(raw, ",")
	name := parts[0]
	var opts tagOpts
	for _, p := range parts[1:] {
		if p == "omitempty" {
			opts.omitempty = true
		}
	}
	return name, opts
}

// isFlattenable reports whether t is a plain struct worth recursing into,
// as opposed to a type like time.Time that should be captured whole.
func isFlattenable(t reflect.Type) bool {
	if t.PkgPath() == "" {
		return true
	}
	return !hasStringerOrMarshaler(t)
}

func hasStringerOrMarshaler(t reflect.Type) bool {
	_, hasString := t.MethodByName("String")
	_, hasMarshal := t.MethodByName("MarshalText")
	return hasString || hasMarshal
}

func isZero(v reflect.Value) bool {
	return v.IsZero()
}

// String formats a Snapshot map as sorted "key=value" pairs, matching the
// key=value style internal/log's formatter uses for structured fields.
func String(snapshot map[string]interface{}) string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, snapshot[k]))
	}
	return strings.Join(parts, " ")
}
