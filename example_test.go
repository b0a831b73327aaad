package gridref_test

import (
	"fmt"

	gridref "github.com/doy/geo-uk-gridref"
)

func ExampleLatLonToGridRef() {
	ref, _ := gridref.LatLonToGridRef(52.6575703056, 1.7179215833)
	fmt.Println(ref)
	// Output: TG 51409 13177
}

func ExampleGridRefToLatLon() {
	lat, lon, _ := gridref.GridRefToLatLon("TG 51409 13177")
	fmt.Printf("%.4f %.4f\n", lat, lon)
	// Output: 52.6576 1.7179
}

func ExampleParseGridRef() {
	coords, _ := gridref.ParseGridRef("NN 16676 71250")
	fmt.Printf("%.0f %.0f\n", coords.Easting, coords.Northing)
	// Output: 216676 771250
}

func ExampleFormatGridRef() {
	ref, _ := gridref.FormatGridRef(gridref.GridCoords{Easting: 216676, Northing: 771250}, 4)
	fmt.Println(ref)
	// Output: NN 16 71
}
