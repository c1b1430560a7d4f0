package relay

// Emitter writes the two parts of an encoded response to the peer
type Emitter interface {
	Emit(metadata string, body []byte) error
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(metadata string, body []byte) error

func (fn EmitterFunc) Emit(metadata string, body []byte) error {
	return fn(metadata, body)
}
