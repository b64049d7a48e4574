package matching

import (
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/mockscope/pkg/stub"
)

// maxCacheEntries bounds each compile cache. When full the cache is dropped
// and refilled; stub sets are small so this rarely happens.
const maxCacheEntries = 1024

type compiled[T any] struct {
	value T
	err   error
}

// compileCache memoizes compilation of pattern strings, including failures.
type compileCache[T any] struct {
	mu      sync.RWMutex
	items   map[string]compiled[T]
	compile func(string) (T, error)
}

func newCompileCache[T any](compile func(string) (T, error)) *compileCache[T] {
	return &compileCache[T]{items: make(map[string]compiled[T]), compile: compile}
}

func (c *compileCache[T]) get(src string) (T, error) {
	c.mu.RLock()
	item, ok := c.items[src]
	c.mu.RUnlock()
	if ok {
		return item.value, item.err
	}

	v, err := c.compile(src)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[src]; ok {
		return existing.value, existing.err
	}
	if len(c.items) >= maxCacheEntries {
		c.items = make(map[string]compiled[T])
	}
	c.items[src] = compiled[T]{value: v, err: err}
	return v, err
}

var (
	regexCache = newCompileCache(regexp.Compile)

	globCache = newCompileCache(func(glob string) (*regexp.Regexp, error) {
		parts := strings.Split(glob, "*")
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		return regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	})

	jsonPathCache = newCompileCache(jp.ParseString)

	schemaCache = newCompileCache(func(src string) (*jsonschema.Schema, error) {
		return stub.CompileSchema([]byte(src))
	})

	programCache = newCompileCache(func(src string) (*vm.Program, error) {
		return expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	})
)
