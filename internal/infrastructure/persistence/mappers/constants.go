package mappers

// initialVersion maps the zero version of a not yet persisted entity to the
// first stored version.
func initialVersion(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
