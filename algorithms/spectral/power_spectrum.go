package spectral

// BinPower returns re² + im² of one spectral bin
func BinPower(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
