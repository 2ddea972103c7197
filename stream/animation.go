package stream

// An Animation produces one Frame per tick of dt seconds.
type Animation interface {
	CalculateFrame(dt float64) *Frame
}

// A Commander applies control messages. source names where the command came
// from and is only used for metrics.
type Commander interface {
	Apply(source string, c Command) error
}
