package oioproxy

import (
	"expvar"
	"fmt"
)

// getVarInt returns an *expvar.Int for the given path, creating it on
// first use. Safe to call repeatedly with the same arguments.
func getVarInt(base, id, name string) *expvar.Int {
	fullname := fmt.Sprintf("oioproxy.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Int)
	}
	return expvar.NewInt(fullname)
}

// getVarMap returns an *expvar.Map for the given path, creating it on
// first use.
func getVarMap(base, id, name string) *expvar.Map {
	fullname := fmt.Sprintf("oioproxy.%s.%s.%s", base, id, name)
	if v := expvar.Get(fullname); v != nil {
		return v.(*expvar.Map)
	}
	return expvar.NewMap(fullname)
}
