package container

import (
	"testing"

	"github.com/deepteams/dering"
)

// FuzzDecode ensures .drf parsing never panics on arbitrary input and that
// every accepted file can be filtered.
func FuzzDecode(f *testing.F) {
	for _, bd := range []int{8, 10} {
		for _, compress := range []bool{false, true} {
			data, err := Encode(testDump(bd, dering.Subsampling420), &WriteOptions{Compress: compress})
			if err == nil {
				f.Add(data)
			}
		}
	}
	f.Add([]byte("RIFF\x04\x00\x00\x00DRNG"))

	f.Fuzz(func(t *testing.T, data []byte) {
		d, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := dering.Apply(d.Frame, d.ModeInfo, d.Level, nil); err != nil {
			t.Fatalf("Apply on decoded dump: %v", err)
		}
	})
}
