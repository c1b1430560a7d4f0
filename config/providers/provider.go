package providers

// Provider fills the fields of a configuration it has values for
type Provider interface {
	Load(cfg any) error
}
