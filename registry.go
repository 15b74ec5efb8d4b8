package hwcodec

import (
	"fmt"
	"sync"
)

// Registry is the start-up list of available backends. Which backends are
// present depends on the platform and configuration; the prober and the
// prioritizer only ever see the lists returned here.
type Registry struct {
	mu sync.RWMutex

	encoders []EncoderBackend
	decoders []DecoderBackend

	encoderIndex map[string]int
	decoderIndex map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		encoderIndex: make(map[string]int),
		decoderIndex: make(map[string]int),
	}
}

// RegisterEncoder adds an encoder backend. Names must be unique.
func (r *Registry) RegisterEncoder(b EncoderBackend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	if name == "" {
		return fmt.Errorf("encoder backend name cannot be empty")
	}
	if _, exists := r.encoderIndex[name]; exists {
		return fmt.Errorf("encoder backend %q already registered", name)
	}
	r.encoderIndex[name] = len(r.encoders)
	r.encoders = append(r.encoders, b)
	return nil
}

// RegisterDecoder adds a decoder backend. Names must be unique.
func (r *Registry) RegisterDecoder(b DecoderBackend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := b.Name()
	if name == "" {
		return fmt.Errorf("decoder backend name cannot be empty")
	}
	if _, exists := r.decoderIndex[name]; exists {
		return fmt.Errorf("decoder backend %q already registered", name)
	}
	r.decoderIndex[name] = len(r.decoders)
	r.decoders = append(r.decoders, b)
	return nil
}

// Encoders returns the registered encoder backends in registration order.
func (r *Registry) Encoders() []EncoderBackend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EncoderBackend(nil), r.encoders...)
}

// Decoders returns the registered decoder backends in registration order.
func (r *Registry) Decoders() []DecoderBackend {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]DecoderBackend(nil), r.decoders...)
}

// Encoder looks up an encoder backend by name.
func (r *Registry) Encoder(name string) (EncoderBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.encoderIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: no encoder named %q", ErrBackendUnavailable, name)
	}
	return r.encoders[i], nil
}

// Decoder looks up a decoder backend by name.
func (r *Registry) Decoder(name string) (DecoderBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.decoderIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: no decoder named %q", ErrBackendUnavailable, name)
	}
	return r.decoders[i], nil
}

// EncoderNames returns registered encoder names in registration order.
func (r *Registry) EncoderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.encoders))
	for i, b := range r.encoders {
		names[i] = b.Name()
	}
	return names
}

// DecoderNames returns registered decoder names in registration order.
func (r *Registry) DecoderNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.decoders))
	for i, b := range r.decoders {
		names[i] = b.Name()
	}
	return names
}
