package scope

import "github.com/getmockd/mockscope/pkg/config"

// ResolveSettings returns the settings declared by the nearest scope,
// walking from s to the root, or defaults when none declares any.
func ResolveSettings(s Scope, defaults Settings) Settings {
	for cur := range Ancestors(s) {
		if d := cur.Declarations(); d != nil && d.Settings != nil {
			return *d.Settings
		}
	}
	return defaults
}

// ResolveConfiguration returns the configuration s declares for itself,
// or nil when it declares none. Declaring more than one is an error.
func ResolveConfiguration(s Scope) (*config.ServerConfiguration, error) {
	if s == nil {
		return nil, configError(nil, ErrNilScope, "")
	}
	d := s.Declarations()
	if d == nil {
		return nil, nil
	}
	var found *config.ServerConfiguration
	n := 0
	for _, c := range d.Configurations {
		if c == nil {
			continue
		}
		found = c
		n++
	}
	if n > 1 {
		return nil, configError(s, ErrMultipleConfigurations,
			"configuration binding only valid once per scope, found %d", n)
	}
	return found, nil
}

// Kind selects a binding kind for ResolveDeclaredHandles.
type Kind int

const (
	// KindManaged selects servers built by the caller.
	KindManaged Kind = iota
	// KindInject selects targets the controller binds its server to.
	KindInject
)

func (k Kind) String() string {
	switch k {
	case KindManaged:
		return "managed"
	case KindInject:
		return "inject"
	}
	return "unknown"
}

// Binding is one declared server binding. Handle is set for managed
// bindings; Inject is set for injection targets.
type Binding struct {
	Kind   Kind
	Handle *Handle
	Inject func(*Handle) error
}

// ResolveDeclaredHandles returns the bindings of kind that s declares
// itself, in declaration order. Ancestor declarations are not included.
func ResolveDeclaredHandles(s Scope, kind Kind) []Binding {
	if s == nil {
		return nil
	}
	d := s.Declarations()
	if d == nil {
		return nil
	}
	var out []Binding
	switch kind {
	case KindManaged:
		for _, h := range d.Managed {
			out = append(out, Binding{Kind: kind, Handle: h})
		}
	case KindInject:
		for _, fn := range d.InjectionTargets {
			if fn != nil {
				out = append(out, Binding{Kind: kind, Inject: fn})
			}
		}
	}
	return out
}
