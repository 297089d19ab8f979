package pagination

import "fmt"

// Validate checks p against cfg.
func (p Params) Validate(cfg Config) error {
	if p.Page < 1 {
		return fmt.Errorf("page must be a positive integer")
	}
	if p.Limit < 1 || p.Limit > cfg.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", cfg.MaxLimit)
	}
	return nil
}

// WithDefaults fills zero or negative fields from cfg and caps Limit.
func (p Params) WithDefaults(cfg Config) Params {
	if p.Page <= 0 {
		p.Page = cfg.DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = cfg.DefaultLimit
	}
	if p.Limit > cfg.MaxLimit {
		p.Limit = cfg.MaxLimit
	}
	return p
}
