package unspool

import "fmt"

// Validate checks the configuration for values the pipeline cannot work with.
func (c Config) Validate() error {
	if err := c.Reveal.Validate(); err != nil {
		return err
	}
	return c.Scroll.Validate()
}

// Validate checks reveal pacing constraints.
func (c RevealConfig) Validate() error {
	switch c.Unit {
	case RevealWord, RevealGrapheme:
	default:
		return fmt.Errorf("reveal unit must be %q or %q, got %q: %w", RevealWord, RevealGrapheme, c.Unit, ErrValidation)
	}
	if c.MinRate <= 0 {
		return fmt.Errorf("reveal min_rate must be positive, got %g: %w", c.MinRate, ErrValidation)
	}
	if c.MaxRate < c.MinRate {
		return fmt.Errorf("reveal max_rate %g is below min_rate %g: %w", c.MaxRate, c.MinRate, ErrValidation)
	}
	if c.InitialRate < c.MinRate || c.InitialRate > c.MaxRate {
		return fmt.Errorf("reveal initial_rate must be in [%g, %g], got %g: %w", c.MinRate, c.MaxRate, c.InitialRate, ErrValidation)
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		return fmt.Errorf("reveal smoothing must be in (0, 1], got %g: %w", c.Smoothing, ErrValidation)
	}
	return nil
}

// Validate checks follow-scroll constraints.
func (c ScrollConfig) Validate() error {
	if c.Tolerance < 0 {
		return fmt.Errorf("scroll tolerance must be non-negative, got %g: %w", c.Tolerance, ErrValidation)
	}
	if c.NoiseThreshold < 0 {
		return fmt.Errorf("scroll noise_threshold must be non-negative, got %g: %w", c.NoiseThreshold, ErrValidation)
	}
	if c.MaxVelocity <= 0 {
		return fmt.Errorf("scroll max_velocity must be positive, got %g: %w", c.MaxVelocity, ErrValidation)
	}
	if c.Stiffness <= 0 {
		return fmt.Errorf("scroll stiffness must be positive, got %g: %w", c.Stiffness, ErrValidation)
	}
	if c.SelfTagWindow <= 0 {
		return fmt.Errorf("scroll self_tag_window must be positive, got %s: %w", c.SelfTagWindow, ErrValidation)
	}
	if c.SelfTagTolerance < 0 {
		return fmt.Errorf("scroll self_tag_tolerance must be non-negative, got %g: %w", c.SelfTagTolerance, ErrValidation)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("scroll frame_interval must be positive, got %s: %w", c.FrameInterval, ErrValidation)
	}
	return nil
}
