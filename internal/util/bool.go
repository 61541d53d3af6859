package util

// FalseIfNil safely dereferences a *bool, defaulting to false.
func FalseIfNil(b *bool) bool {
	if b == nil {
		return false
	}

	return *b
}
