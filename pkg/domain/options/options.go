// Package options provides the generic functional options used by every
// domain and adapter package.
package options

// Option modifies some options type T.
type Option[T any] interface {
	ApplyOption(*T) error
}

// OptionFunc converts a plain function into an Option.
type OptionFunc[T any] func(*T) error

// ApplyOption implements Option. A nil OptionFunc is a no-op.
func (f OptionFunc[T]) ApplyOption(o *T) error {
	if f == nil {
		return nil
	}
	return f(o)
}

// Apply applies opts to target in order, stopping at the first error.
// Nil options are skipped.
func Apply[T any](target *T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.ApplyOption(target); err != nil {
			return err
		}
	}
	return nil
}

// Set builds an Option from a setter that cannot fail.
func Set[T any](set func(*T)) Option[T] {
	return OptionFunc[T](func(o *T) error {
		set(o)
		return nil
	})
}
