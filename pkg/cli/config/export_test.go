package config

// MaxBytes exposes the configured snapshot capacity for tests
func (x *Cache) MaxBytes() int {
	return x.maxBytes
}

// ProbeURL exposes the configured probe URL for tests
func (s *Sync) ProbeURL() string {
	return s.probeURL
}
