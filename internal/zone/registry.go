package zone

import "sync"

// Registry shares one Device between every caller working the same
// device path, refcounting it the way zbd.c's zbd_init_zone_info/
// zbd_free_zone_info share a single zoned_block_device_info across every
// fio_file backed by the same path.
type Registry struct {
	mu      sync.Mutex
	devices map[string]*Device
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// Open returns the shared Device for path, discovering it via discover if
// this is the first reference. Every successful Open must be paired with a
// Close.
func (r *Registry) Open(path string, discover func() (*Device, error)) (*Device, error) {
	r.mu.Lock()
	if d, ok := r.devices[path]; ok {
		d.mu.Lock()
		d.Refcount++
		d.mu.Unlock()
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	d, err := discover()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.devices[path]; ok {
		existing.mu.Lock()
		existing.Refcount++
		existing.mu.Unlock()
		return existing, nil
	}
	d.Refcount = 1
	r.devices[path] = d
	return d, nil
}

// Close drops one reference to the Device at path, removing it from the
// registry once the refcount reaches zero.
func (r *Registry) Close(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[path]
	if !ok {
		return
	}
	d.mu.Lock()
	d.Refcount--
	remaining := d.Refcount
	d.mu.Unlock()

	if remaining <= 0 {
		delete(r.devices, path)
	}
}

// Len reports how many distinct devices are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}
