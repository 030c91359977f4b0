package imagevault

import "github.com/deploymenttheory/go-imagevault/internal/filter"

// Registry holds an ordered set of format plugins and probes them in
// registration order, returning the first that claims the filter.
type Registry struct {
	plugins []Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a plugin to the end of the probe order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// Plugins returns the registered plugins in probe order.
func (r *Registry) Plugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// Detect probes every registered plugin's Identify against f in
// registration order and returns the first match, or nil if none
// claim the artifact.
func (r *Registry) Detect(f filter.Filter) Plugin {
	for _, p := range r.plugins {
		if p.Identify(f) {
			return p
		}
	}
	return nil
}

// Open runs Detect then fully opens the winning plugin's image. It
// returns NotIdentified if no plugin claims the filter.
func (r *Registry) Open(f filter.Filter) (BaseImage, Plugin, error) {
	p := r.Detect(f)
	if p == nil {
		return nil, nil, NewError(KindNotIdentified, "no registered plugin recognized %q", f.BasePath())
	}
	img := p.New()
	if err := img.Open(f); err != nil {
		return nil, p, err
	}
	return img, p, nil
}

// LooksTextual guards textual descriptor plugins (CloneCD and
// siblings): identify must reject binary input before running any
// regex/tokenizer over it. A textual plugin's identify should call
// this first and bail out (return false) if it reports false.
//
// The heuristic scans the first 512 bytes (or the whole buffer if
// shorter) and rejects on two consecutive NUL bytes, or any control
// byte other than LF, CR, or NUL.
func LooksTextual(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	prevNUL := false
	for i := 0; i < n; i++ {
		b := data[i]
		if b == 0 {
			if prevNUL {
				return false
			}
			prevNUL = true
			continue
		}
		prevNUL = false
		if b < 0x20 && b != '\n' && b != '\r' {
			return false
		}
	}
	return true
}
