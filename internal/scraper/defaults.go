package scraper

// NewDefaultRegistry builds a registry with the built-in adapter
// catalogue registered. Per-call ranking comes from SearchOptions.
func NewDefaultRegistry(env *Env) *Registry {
	r := NewRegistry(env)
	r.Register(NewJavLibrary())
	r.Register(NewJavBus())
	r.Register(NewAvmoo())
	r.Register(NewFC2())
	r.Register(NewTokyoHot())
	r.Register(NewTMDB())
	r.Register(NewIMDB())
	return r
}
