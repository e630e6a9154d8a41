package exporters

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Factory func() Exporter

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func Register(format string, factory Factory) error {
	format = strings.ToLower(strings.TrimSpace(format))
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[format]; exists {
		return fmt.Errorf("exporter: format %q already registered", format)
	}
	registry[format] = factory
	return nil
}

func Get(format string) (Exporter, error) {
	mu.RLock()
	factory, ok := registry[strings.ToLower(strings.TrimSpace(format))]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported format: %q (available: %s)",
			format, strings.Join(List(), ", "))
	}
	return factory(), nil
}

func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	formats := make([]string, 0, len(registry))
	for name := range registry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}

func MustRegister(format string, factory Factory) {
	if err := Register(format, factory); err != nil {
		panic(err)
	}
}
