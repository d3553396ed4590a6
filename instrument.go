package scpi

// WithInstrument runs fn against an open instrument and closes it exactly
// once on every exit path, including a panic inside fn. When fn succeeds,
// the close error (if any) is returned; when fn fails, its error wins.
func WithInstrument(inst Instrument, fn func(Instrument) error) (err error) {
	defer func() {
		cerr := inst.Close()
		if err == nil {
			err = cerr
		}
	}()
	return fn(inst)
}
