package scope

import (
	"fmt"
	"reflect"

	"github.com/getmockd/mockscope/pkg/config"
)

// TagName is the struct tag Bind reads.
const TagName = "mockscope"

var (
	handleType   = reflect.TypeFor[*Handle]()
	serverType   = reflect.TypeFor[Server]()
	configType   = reflect.TypeFor[*config.ServerConfiguration]()
	settingsType = reflect.TypeFor[Settings]()
)

// Bind reads the tagged fields of the struct instance points to and
// returns the equivalent Declarations:
//
//	type checkoutTest struct {
//		Payments *engine.Server              `mockscope:"managed"`
//		Orders   *scope.Handle               `mockscope:"inject"`
//		Config   *config.ServerConfiguration `mockscope:"config"`
//		Settings scope.Settings              `mockscope:"settings"`
//	}
//
// managed fields hold a *Handle or a non-nil Server. inject fields are a
// *Handle, the Server interface or a concrete server type, and are set
// when the controller builds the scope's server; a concrete type the
// built server does not have fails the scope's entry. config fields are a
// *config.ServerConfiguration or a value; nil pointers and zero values
// are skipped. Tagged fields must be exported.
func Bind(instance any) (*Declarations, error) {
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: want a non-nil pointer to a struct, got %T", ErrInvalidBinding, instance)
	}
	v = v.Elem()
	t := v.Type()

	d := &Declarations{}
	for i := range t.NumField() {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(TagName)
		if !ok {
			continue
		}
		if !f.IsExported() {
			return nil, fieldError(f, "field is not exported")
		}
		fv := v.Field(i)
		var err error
		switch tag {
		case "managed":
			err = bindManaged(d, f, fv)
		case "inject":
			err = bindInject(d, f, fv)
		case "config":
			err = bindConfig(d, f, fv)
		case "settings":
			err = bindSettings(d, f, fv)
		default:
			err = fieldError(f, "unknown binding %q", tag)
		}
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func fieldError(f reflect.StructField, format string, args ...any) error {
	return fmt.Errorf("%w: field %s: %s", ErrInvalidBinding, f.Name, fmt.Sprintf(format, args...))
}

func bindManaged(d *Declarations, f reflect.StructField, fv reflect.Value) error {
	switch {
	case f.Type == handleType:
		if fv.IsNil() {
			return fieldError(f, "managed handle is nil")
		}
		d.Managed = append(d.Managed, fv.Interface().(*Handle))
	case f.Type.Implements(serverType):
		if isNil(fv) {
			return fieldError(f, "managed server is nil")
		}
		d.Managed = append(d.Managed, Managed(fv.Interface().(Server)))
	default:
		return fieldError(f, "managed field must be *scope.Handle or a Server, got %s", f.Type)
	}
	return nil
}

func bindInject(d *Declarations, f reflect.StructField, fv reflect.Value) error {
	switch {
	case f.Type == handleType:
		d.InjectionTargets = append(d.InjectionTargets, func(h *Handle) error {
			fv.Set(reflect.ValueOf(h))
			return nil
		})
	case f.Type.Kind() == reflect.Interface && serverType.AssignableTo(f.Type),
		f.Type.Implements(serverType):
		d.InjectionTargets = append(d.InjectionTargets, func(h *Handle) error {
			sv := reflect.ValueOf(h.Server())
			if !sv.IsValid() || !sv.Type().AssignableTo(f.Type) {
				return fieldError(f, "cannot inject %T into %s", h.Server(), f.Type)
			}
			fv.Set(sv)
			return nil
		})
	default:
		return fieldError(f, "inject field must be *scope.Handle or a Server, got %s", f.Type)
	}
	return nil
}

func bindConfig(d *Declarations, f reflect.StructField, fv reflect.Value) error {
	switch f.Type {
	case configType:
		if !fv.IsNil() {
			d.Configurations = append(d.Configurations, fv.Interface().(*config.ServerConfiguration))
		}
	case configType.Elem():
		// A zero value means the field was left unset.
		if fv.IsZero() {
			return nil
		}
		cfg := fv.Interface().(config.ServerConfiguration)
		d.Configurations = append(d.Configurations, &cfg)
	default:
		return fieldError(f, "config field must be config.ServerConfiguration, got %s", f.Type)
	}
	return nil
}

func bindSettings(d *Declarations, f reflect.StructField, fv reflect.Value) error {
	if d.Settings != nil {
		return fieldError(f, "settings declared twice")
	}
	switch f.Type {
	case settingsType:
		s := fv.Interface().(Settings)
		d.Settings = &s
	case reflect.PointerTo(settingsType):
		if !fv.IsNil() {
			s := *fv.Interface().(*Settings)
			d.Settings = &s
		}
	default:
		return fieldError(f, "settings field must be scope.Settings, got %s", f.Type)
	}
	return nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
