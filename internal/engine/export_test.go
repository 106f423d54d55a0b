package engine

// Designs returns how many kernel banks were designed since construction.
func (c *Converter[F]) Designs() int { return c.designs }
