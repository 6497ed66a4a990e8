package resource

// VersionID is a monotone counter used as a "latest seen" marker so
// collectors can detect that a component changed without diffing it.
type VersionID uint64

// Bump advances the version and returns the new value. Every mutating
// setter on Mesh/Material/Shader calls this.
func (v *VersionID) Bump() VersionID {
	*v++
	return *v
}

// UpdateTo assigns current = source only when source is newer (source > *v)
// and reports whether it did. A false return means source is not newer and
// *v is left unchanged.
func (v *VersionID) UpdateTo(source VersionID) bool {
	if source > *v {
		*v = source
		return true
	}
	return false
}
