package proxy

import "reflect"

// Config controls how a proxy exposes its target.
type Config struct {
	// ProxyTargetType exposes every exported method of the target's
	// concrete type. When false, only methods of the Interfaces the target
	// implements are exposed; if it implements none of them, the full
	// method set is exposed anyway.
	ProxyTargetType bool

	// Interfaces lists the interface types a proxy may expose.
	Interfaces []reflect.Type
}

// CopyFrom copies every setting from other.
func (c *Config) CopyFrom(other Config) {
	c.ProxyTargetType = other.ProxyTargetType
	c.Interfaces = append([]reflect.Type(nil), other.Interfaces...)
}

// exposedMethods resolves the callable methods of t under c.
func (c Config) exposedMethods(t reflect.Type) map[string]reflect.Method {
	methods := make(map[string]reflect.Method)

	if !c.ProxyTargetType {
		for _, iface := range c.Interfaces {
			if iface.Kind() != reflect.Interface || !t.Implements(iface) {
				continue
			}
			for i := 0; i < iface.NumMethod(); i++ {
				if m, ok := t.MethodByName(iface.Method(i).Name); ok {
					methods[m.Name] = m
				}
			}
		}
		if len(methods) > 0 {
			return methods
		}
	}

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		methods[m.Name] = m
	}
	return methods
}
