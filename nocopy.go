package parklot

// noCopy is embedded (as `_ noCopy`) in every lock and record type whose
// address is load-bearing — copying one would silently produce a second,
// independent lock word. go vet's copylocks check flags any type that
// embeds it. Grounded on the `_ noCopy` marker fields used throughout the
// teacher package (flat_mapof.go, seq_flat_mapof.go).
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
