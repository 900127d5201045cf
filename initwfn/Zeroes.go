package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig implements a configuration of a weight initializer that
// sets all weights to zero.
type ZeroesConfig struct{}

// NewZeroes returns a new zero weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (z ZeroesConfig) Create() G.InitWFn {
	return G.Zeroes()
}

// Validate ensures the configuration is valid
func (z ZeroesConfig) Validate() error {
	return nil
}
