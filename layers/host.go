package layers

// Source is the host's handle on one playable clip bound to a mixer slot.
type Source interface {
	// Duration is the clip length in seconds.
	Duration() float64
	// Time is the playback cursor in seconds.
	Time() float64
	SetCursor(seconds float64)
	SetPlaybackRate(rate float64)
	Play()
	Pause()
}

// Host is the animation runtime the mixer drives. Slots are parallel to
// mixer layer indices.
type Host interface {
	// BindSource binds clip to slot, replacing whatever was bound there.
	BindSource(slot int, clip string) (Source, error)
	// SetMixWeight applies the blend weight of slot.
	SetMixWeight(slot int, weight float64)
	// Release drops slot; later slots shift down by one.
	Release(slot int)
}
