package utils

import (
	"math"

	"github.com/adammck/dynamixel/network"
)

func Deg(rads float64) float64 {
	return rads / (math.Pi / 180)
}

func Rad(degrees float64) float64 {
	return (math.Pi / 180) * degrees
}

// Clamp saturates v into [min, max].
func Clamp(v float64, min float64, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Sync runs the given function while the network is in buffered mode, then
// initiates any movements at once by sending ACTION.
func Sync(n *network.Network, f func()) {
	n.SetBuffered(true)
	f()
	n.SetBuffered(false)
	n.Action()
}
