package grid

import "fmt"

// Address identifies a single tile by its grid position. Addresses are unique
// within a Config and enumerate in row-major order.
type Address struct {
	Row uint `json:"row"`
	Col uint `json:"col"`
}

func (a Address) String() string {
	return fmt.Sprintf("(%d,%d)", a.Row, a.Col)
}

// Key identifies a rendered tile: the same address may be rendered at preview
// resolution and analysis resolution independently, so cache and result
// lookups always carry the resolution.
type Key struct {
	Address
	ResolutionPx uint
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%dpx", k.Address, k.ResolutionPx)
}

// AllAddresses returns every tile address in the grid in row-major scan
// order. The sequence is deterministic and contains exactly Rows*Cols
// unique addresses.
func AllAddresses(cfg Config) []Address {
	addrs := make([]Address, 0, cfg.Rows*cfg.Cols)
	for row := uint(0); row < cfg.Rows; row++ {
		for col := uint(0); col < cfg.Cols; col++ {
			addrs = append(addrs, Address{Row: row, Col: col})
		}
	}
	return addrs
}

// Contains reports whether the address lies within the grid.
func (c Config) Contains(a Address) bool {
	return a.Row < c.Rows && a.Col < c.Cols
}
