package marker

// Marker is a declaration attached to a method or a parameter.
type Marker interface {
	// MarkerName returns a short human-readable name, used in logs.
	MarkerName() string
}

// Composed is a marker that is itself marked by other markers.
type Composed interface {
	Marker
	Meta() []Marker
}

// StartProcess marks a method whose successful completion starts a process.
// An empty ProcessKey means the key is derived from the declaring type and
// method name.
type StartProcess struct {
	ProcessKey string
}

// MarkerName implements Marker.
func (StartProcess) MarkerName() string { return "StartProcess" }

// ProcessVariable marks a parameter whose argument is forwarded as a
// process variable. An empty Name means the parameter's declared name.
type ProcessVariable struct {
	Name string
}

// MarkerName implements Marker.
func (ProcessVariable) MarkerName() string { return "ProcessVariable" }

// Param describes one method parameter, in signature order. A leading
// context.Context is not described.
type Param struct {
	Name    string
	Markers []Marker
}

// Variable returns the parameter's ProcessVariable marker, if any.
func (p Param) Variable() (ProcessVariable, bool) {
	for _, m := range p.Markers {
		if v, ok := m.(ProcessVariable); ok {
			return v, true
		}
	}
	return ProcessVariable{}, false
}

// Method declares the markers of one method.
type Method struct {
	Name    string
	Markers []Marker
	Params  []Param
}

// Declarer is implemented by types that declare marked methods.
// ProcessMethods is called on the zero value of the type, so it must not
// depend on instance state.
type Declarer interface {
	ProcessMethods() []Method
}

// Trigger declares method as starting the process identified by key.
func Trigger(method, key string, params ...Param) Method {
	return Method{
		Name:    method,
		Markers: []Marker{StartProcess{ProcessKey: key}},
		Params:  params,
	}
}

// Var declares a parameter forwarded as the process variable name.
// An empty name falls back to the parameter name.
func Var(param, name string) Param {
	return Param{Name: param, Markers: []Marker{ProcessVariable{Name: name}}}
}

// Arg declares a parameter that is not forwarded.
func Arg(param string) Param {
	return Param{Name: param}
}

// TriggerOf returns the StartProcess found among markers, either directly
// or one level down through a Composed marker. Direct markers win.
func TriggerOf(markers []Marker) (StartProcess, bool) {
	for _, m := range markers {
		if sp, ok := m.(StartProcess); ok {
			return sp, true
		}
	}
	for _, m := range markers {
		c, ok := m.(Composed)
		if !ok {
			continue
		}
		for _, meta := range c.Meta() {
			if sp, ok := meta.(StartProcess); ok {
				return sp, true
			}
		}
	}
	return StartProcess{}, false
}
