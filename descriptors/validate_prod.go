//go:build !debug_lifetime

package descriptors

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_lifetime build tag is present
func DebugValidate(validatable Validatable) {
}
