package shaper

// DefaultControllerSuffix marks controller nodes by their short name.
const DefaultControllerSuffix = "_ctl"

// DefaultSideTokens are swapped to find a node's opposite-side counterpart.
var DefaultSideTokens = [][2]string{
	{"L_", "R_"},
	{"_L", "_R"},
	{"left", "right"},
	{"Left", "Right"},
}

type EngineBuilder struct {
	engine *Engine
}

// NewEngineBuilder starts an engine bound to host with default settings.
func NewEngineBuilder(host Host) *EngineBuilder {
	return &EngineBuilder{engine: &Engine{
		host:       host,
		log:        NewNopLogger(),
		sideTokens: DefaultSideTokens,
		ctrlSuffix: DefaultControllerSuffix,
		extension:  CtrlExtension,
	}}
}

func (b *EngineBuilder) UseLogger(logger Logger) *EngineBuilder {
	if logger != nil {
		b.engine.log = logger
	}
	return b
}

// UseCatalog hands the preset catalog to the engine.
func (b *EngineBuilder) UseCatalog(catalog *Catalog) *EngineBuilder {
	b.engine.catalog = catalog
	return b
}

func (b *EngineBuilder) UseSideTokens(tokens [][2]string) *EngineBuilder {
	if len(tokens) > 0 {
		b.engine.sideTokens = tokens
	}
	return b
}

func (b *EngineBuilder) UseControllerSuffix(suffix string) *EngineBuilder {
	b.engine.ctrlSuffix = suffix
	return b
}

// UseExtension sets the extension appended to export paths that have none.
func (b *EngineBuilder) UseExtension(ext string) *EngineBuilder {
	if ext != "" {
		b.engine.extension = ext
	}
	return b
}

func (b *EngineBuilder) Build() *Engine {
	return b.engine
}
