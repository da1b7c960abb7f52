package domain

// Zero overwrites key material with zeros so it does not outlive its owner in memory.
func Zero(b []byte) {
	clear(b)
}
