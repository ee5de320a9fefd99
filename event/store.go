package event

// ParameterStore is the capability the registry needs from the process model.
// Get returns float64 for scalar parameters and []float64 for sequences. Set
// must leave the stored value unchanged when it returns an error.
type ParameterStore interface {
	// IsSectionDependent reports whether events may change the parameter.
	IsSectionDependent(path string) bool

	// IsPolynomial reports whether the parameter is interpolated within a
	// section.
	IsPolynomial(path string) bool

	// Get returns the current value of the parameter.
	Get(path string) (any, error)

	// Set replaces the current value of the parameter.
	Set(path string, value any) error
}
