package dao

// Parameter is a name/value filter applied by List implementations.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a list filter; a single value stays scalar, multiple
// values become a slice.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
