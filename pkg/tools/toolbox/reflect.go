package toolbox

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// FromFunc builds a Tool from a typed function. Parameters are derived from
// the exported string fields of the struct type T:
//
//	type weatherInput struct {
//		City  string `tool:"city" desc:"City to look up"`
//		Units string `tool:"units,optional"`
//	}
//
// The tool tag sets the parameter name (defaulting to the lowercased field
// name) and may mark it optional; fields tagged "-" are skipped. Fields of any
// other type are rejected. Only the first line of doc becomes the tool
// description.
func FromFunc[T any](name, doc string, fn func(context.Context, T) (string, error)) (Tool, error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return Tool{}, fmt.Errorf("toolbox: %s: input must be a struct, got %s", name, typ.Kind())
	}

	var (
		params []Param
		fields []int
	)

	for i := range typ.NumField() {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}

		tag := f.Tag.Get("tool")
		if tag == "-" {
			continue
		}
		if f.Type.Kind() != reflect.String {
			return Tool{}, fmt.Errorf("toolbox: %s: field %s must be a string, got %s", name, f.Name, f.Type)
		}

		pname, opts, _ := strings.Cut(tag, ",")
		if pname == "" {
			pname = strings.ToLower(f.Name)
		}

		params = append(params, Param{
			Name:        pname,
			Description: f.Tag.Get("desc"),
			Required:    opts != "optional",
		})
		fields = append(fields, i)
	}

	desc, _, _ := strings.Cut(strings.TrimSpace(doc), "\n")

	return Tool{
		Name:        name,
		Description: strings.TrimSpace(desc),
		Params:      params,
		Handler: func(ctx context.Context, args Args) (string, error) {
			var in T
			v := reflect.ValueOf(&in).Elem()
			for j, idx := range fields {
				if s, ok := args[params[j].Name]; ok {
					v.Field(idx).SetString(s)
				}
			}

			return fn(ctx, in)
		},
	}, nil
}

// MustFromFunc is like FromFunc but panics on error.
func MustFromFunc[T any](name, doc string, fn func(context.Context, T) (string, error)) Tool {
	t, err := FromFunc(name, doc, fn)
	if err != nil {
		panic(err)
	}

	return t
}
