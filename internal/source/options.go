package source

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithWriteHook registers fn to run after every write.
func WithWriteHook(fn WriteFunc) Option {
	return func(b *Buffer) {
		if fn != nil {
			b.onWrite = append(b.onWrite, fn)
		}
	}
}
