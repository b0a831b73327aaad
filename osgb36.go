package gridref

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// Airy 1830 ellipsoid axes in metres.
const (
	AirySemiMajorAxis = 6377563.396
	AirySemiMinorAxis = 6356256.910
)

// National Grid projection parameters: the scale factor on the central
// meridian, the true origin at 49N 2W, and the grid coordinates assigned
// to the true origin.
const (
	NationalGridScaleFactor    = 0.9996012717
	NationalGridOriginLat      = 49.0      // degrees
	NationalGridOriginLon      = -2.0      // degrees
	NationalGridOriginEasting  = 400000.0  // metres
	NationalGridOriginNorthing = -100000.0 // metres
)

// DefaultPrecision is the digit count of grid references produced by
// LatLonToGridRef, giving 1 metre resolution.
const DefaultPrecision = 10

// DefaultNationalGridConverter is an Airy 1830 based National Grid
// converter.
var DefaultNationalGridConverter *NationalGrid

func init() {
	var err error
	DefaultNationalGridConverter, err = NewNationalGrid()
	if err != nil {
		panic(fmt.Sprintf("error constructing National Grid converter: %s", err))
	}
}

// LatLonToGridRef converts an Airy 1830 latitude and longitude in degrees
// to a metre-precision National Grid reference such as "TG 51409 13177".
func LatLonToGridRef(lat, lon float64) (string, error) {
	return DefaultNationalGridConverter.ConvertFromGeodetic(s2.LatLngFromDegrees(lat, lon), DefaultPrecision)
}

// GridRefToLatLon converts a National Grid reference to an Airy 1830
// latitude and longitude in degrees. A reference below metre precision
// resolves to the centre of the cell it names.
func GridRefToLatLon(reference string) (lat, lon float64, err error) {
	geodetic, err := DefaultNationalGridConverter.ConvertToGeodetic(reference)
	if err != nil {
		return 0, 0, err
	}
	return geodetic.Lat.Degrees(), geodetic.Lng.Degrees(), nil
}
