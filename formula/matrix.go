package formula

import (
	"maps"
	"slices"
)

// Matrix lists the values each setting (Require) and each option can take.
type Matrix struct {
	Require map[string][]string
	Options map[string][]string
}

// Combinations expands the matrix. Within a group, keys are taken in sorted
// order and their values joined with "-". The settings part and the option
// part of a combination are joined with "|".
func (m *Matrix) Combinations() []string {
	reqs, opts := product(m.Require), product(m.Options)
	if len(reqs) == 0 {
		return opts
	}
	if len(opts) == 0 {
		return reqs
	}
	out := make([]string, 0, len(reqs)*len(opts))
	for _, req := range reqs {
		for _, opt := range opts {
			out = append(out, req+"|"+opt)
		}
	}
	return out
}

// CombinationCount is len(m.Combinations()) without expanding the matrix.
func (m *Matrix) CombinationCount() int {
	total := 0
	for _, n := range []int{count(m.Require), count(m.Options)} {
		switch {
		case n == 0:
		case total == 0:
			total = n
		default:
			total *= n
		}
	}
	return total
}

func product(kvs map[string][]string) []string {
	if len(kvs) == 0 {
		return nil
	}
	out := []string{""}
	for i, k := range slices.Sorted(maps.Keys(kvs)) {
		next := make([]string, 0, len(out)*len(kvs[k]))
		for _, prefix := range out {
			for _, v := range kvs[k] {
				if i > 0 {
					v = prefix + "-" + v
				}
				next = append(next, v)
			}
		}
		out = next
	}
	return out
}

func count(kvs map[string][]string) int {
	if len(kvs) == 0 {
		return 0
	}
	n := 1
	for _, values := range kvs {
		n *= len(values)
	}
	return n
}

// Matrix returns the option matrix of the recipe for the given settings:
// the settings as single values, every declared value of each option that
// survives ConfigOptions.
func (r *Recipe) Matrix(settings Settings) (Matrix, error) {
	cfg, err := r.Resolve(settings, nil)
	if err != nil {
		return Matrix{}, err
	}
	m := Matrix{Require: map[string][]string{}, Options: map[string][]string{}}
	for k, v := range cfg.Settings {
		m.Require[k] = []string{v}
	}
	for _, name := range cfg.Options.Keys() {
		for _, v := range r.options[name].values {
			m.Options[name] = append(m.Options[name], name+"="+v)
		}
	}
	return m, nil
}
