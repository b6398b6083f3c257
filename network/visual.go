package network

// VisualLayer returns the layer a node appears on after its grid turned quarterTurns times
// With total layers N the result is (layer + quarterTurns) mod N
func VisualLayer(layer, quarterTurns, total int) int {
	if total <= 0 {
		return layer
	}
	return ((layer+quarterTurns)%total + total) % total
}
