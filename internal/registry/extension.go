package registry

// ExtensionPoint is an out-of-tree contributor. It is invoked once per
// registration pass of every kind and decides what to add by inspecting
// Collector.Kind.
//
// Implementations must not query the registry that is running the pass.
type ExtensionPoint interface {
	Register(c Collector)
}

// ExtensionFunc adapts a plain function to ExtensionPoint.
type ExtensionFunc func(c Collector)

// Register implements ExtensionPoint.
func (f ExtensionFunc) Register(c Collector) {
	f(c)
}
