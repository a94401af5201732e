/*
Copyright © 2018 the icgem authors.
This file is part of icgem.

icgem is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

icgem is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with icgem.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package fingerprint computes content fingerprints of grid data and
// rendering options, for use as HTTP cache validators.
package fingerprint

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"
	"math"

	"github.com/davecgh/go-spew/spew"
)

// printer dumps values that gob cannot encode, such as interface values
// of unregistered types, in a deterministic form.
var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Digest accumulates data into a 128-bit FNV-1a fingerprint.
type Digest struct {
	h   hash.Hash
	buf [8]byte
}

// New returns an empty Digest.
func New() *Digest {
	return &Digest{h: fnv.New128a()}
}

func (d *Digest) uint64(v uint64) {
	binary.LittleEndian.PutUint64(d.buf[:], v)
	d.h.Write(d.buf[:])
}

// Text adds s. Each string is prefixed by its length, so "ab", "c" and
// "a", "bc" give different fingerprints.
func (d *Digest) Text(s ...string) *Digest {
	for _, v := range s {
		d.uint64(uint64(len(v)))
		d.h.Write([]byte(v))
	}
	return d
}

// Floats adds the bit patterns of the values in v, preceded by their
// number.
func (d *Digest) Floats(v []float64) *Digest {
	d.uint64(uint64(len(v)))
	for _, x := range v {
		d.uint64(math.Float64bits(x))
	}
	return d
}

// Value adds the gob encoding of v, or a sorted dump of v when v cannot
// be gob encoded.
func (d *Digest) Value(v interface{}) *Digest {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(v); err == nil {
		d.h.Write([]byte{'g'})
		d.h.Write(b.Bytes())
		return d
	}
	d.h.Write([]byte{'s'})
	printer.Fprintf(d.h, "%#v", v)
	return d
}

// Sum returns the fingerprint of the data added so far as a hexadecimal
// string.
func (d *Digest) Sum() string {
	return fmt.Sprintf("%x", d.h.Sum(nil))
}
