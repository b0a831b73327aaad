package gridref

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"

	"github.com/golang/geo/s2"
)

// GridCoords is a National Grid position in metres east and north of the
// grid origin.
type GridCoords struct {
	Easting  float64
	Northing float64
}

// Conversion errors. Wrapped errors carry position detail; test with
// errors.Is.
var (
	// ErrInvalidGridReference indicates a reference string that does not
	// follow the National Grid grammar or names a square outside the grid.
	ErrInvalidGridReference = errors.New("gridref: invalid grid reference")

	// ErrInvalidPosition indicates an easting/northing pair outside the
	// rectangle of 100km squares covering the British Isles.
	ErrInvalidPosition = errors.New("gridref: position not on the National Grid")
)

// gridEpsilon absorbs downward error when a projected position is split
// into whole-metre grid digits. The projection series is about a
// centimetre off after a full round trip at the far corners of the grid,
// so the snap is sized in centimetres.
const gridEpsilon = 4.99e-2

const maxPrecision = 10 // digit count of a 1 metre reference

// The British Isles are covered by a 7 by 13 rectangle of 100km squares,
// indexed from the south-west corner square "SV".
const maxEastingIndex = 6
const maxNorthingIndex = 12

// The grid alphabet omits 'I'. Letter indices past letterH shift down by
// one when decoding and back up when encoding.
const letterH = 7

// centrePads, indexed by half the numeric body length, move a decoded
// position from the corner of the named cell to its centre.
var centrePads = [6]string{"50000", "5000", "500", "50", "5", ""}

// cellMetres returns the grid cell side in metres for a reference whose
// numeric body has 2*halfDigits digits.
func cellMetres(halfDigits int) int {
	switch halfDigits {
	case 1:
		return 10000
	case 2:
		return 1000
	case 3:
		return 100
	case 4:
		return 10
	case 5:
		return 1
	}
	return 100000
}

// ParseGridRef converts a National Grid reference string such as
// "TG 51409 13177" to easting and northing in metres. Letters are matched
// case-insensitively and whitespace may appear anywhere. A reference with
// fewer than 10 digits names a cell larger than a metre; the position
// returned is the centre of that cell.
func ParseGridRef(reference string) (GridCoords, error) {
	// remove any whitespace and upper-case the rest
	buf := bytes.Buffer{}
	for _, r := range reference {
		if unicode.IsSpace(r) {
			continue
		}
		if r > unicode.MaxASCII || (!isdigit(byte(r)) && !isalpha(byte(r))) {
			return GridCoords{}, fmt.Errorf("%w: invalid character %q", ErrInvalidGridReference, r)
		}
		buf.WriteByte(toupper(byte(r)))
	}
	ref := buf.String()

	if len(ref) < 2 || !isalpha(ref[0]) || !isalpha(ref[1]) {
		return GridCoords{}, fmt.Errorf("%w: must begin with two letters", ErrInvalidGridReference)
	}
	body := ref[2:]
	for i := 0; i < len(body); i++ {
		if !isdigit(body[i]) {
			return GridCoords{}, fmt.Errorf("%w: letters in the numeric body", ErrInvalidGridReference)
		}
	}
	if (len(body)%2 != 0) || (len(body) > maxPrecision) {
		return GridCoords{}, fmt.Errorf("%w: numeric body must be an even count of at most %d digits", ErrInvalidGridReference, maxPrecision)
	}

	l1 := int(ref[0] - 'A')
	l2 := int(ref[1] - 'A')
	if l1 > letterH {
		l1--
	}
	if l2 > letterH {
		l2--
	}

	// 100km-square indices, anchored so that square "SV" is (0, 0)
	e100k := ((l1-2)%5)*5 + l2%5
	n100k := (19 - (l1/5)*5) - l2/5
	if (e100k < 0) || (e100k > maxEastingIndex) ||
		(n100k < 0) || (n100k > maxNorthingIndex) {
		return GridCoords{}, fmt.Errorf("%w: square %q is outside the grid", ErrInvalidGridReference, ref[:2])
	}

	half := len(body) / 2
	eastString := strconv.Itoa(e100k) + body[:half] + centrePads[half]
	northString := strconv.Itoa(n100k) + body[half:] + centrePads[half]

	var easting, northing int
	fmt.Sscanf(eastString, "%d", &easting)
	fmt.Sscanf(northString, "%d", &northing)

	return GridCoords{
		Easting:  float64(easting),
		Northing: float64(northing),
	}, nil
}

// FormatGridRef converts easting and northing in metres to a National Grid
// reference string with precision total digits (0, 2, 4, 6, 8 or 10; 10
// digits gives 1 metre cells). The position is truncated to the cell
// containing it.
func FormatGridRef(coords GridCoords, precision int) (string, error) {
	if (precision < 0) || (precision > maxPrecision) || (precision%2 != 0) {
		return "", fmt.Errorf("%w: precision must be an even digit count of at most %d", ErrInvalidGridReference, maxPrecision)
	}

	// Snap onto the metre grid before splitting so the square letters and
	// the digit body always agree.
	easting := math.Floor(coords.Easting + gridEpsilon)
	northing := math.Floor(coords.Northing + gridEpsilon)

	e100k := int(math.Floor(easting / 100000))
	n100k := int(math.Floor(northing / 100000))
	if (e100k < 0) || (e100k > maxEastingIndex) ||
		(n100k < 0) || (n100k > maxNorthingIndex) {
		return "", fmt.Errorf("%w: easting %.0f, northing %.0f", ErrInvalidPosition, coords.Easting, coords.Northing)
	}

	// Invert the square-index mapping to recover the letter indices
	l1 := (19 - n100k) - (19-n100k)%5 + (e100k+10)/5
	l2 := ((19-n100k)*5)%25 + e100k%5
	if l1 > letterH {
		l1++
	}
	if l2 > letterH {
		l2++
	}

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	buf := bytes.Buffer{}
	buf.WriteByte(alphabet[l1])
	buf.WriteByte(alphabet[l2])

	if precision > 0 {
		half := precision / 2
		divisor := cellMetres(half)
		east := (int(easting) - e100k*100000) / divisor
		north := (int(northing) - n100k*100000) / divisor
		fmt.Fprintf(&buf, " %0*d %0*d", half, east, half, north)
	}
	return buf.String(), nil
}

// NationalGrid converts between geodetic coordinates on the Airy 1830
// ellipsoid and British National Grid references.
type NationalGrid struct {
	projection *TransverseMercator
}

// NewNationalGrid constructs a National Grid converter for the Airy 1830
// ellipsoid with the Ordnance Survey projection parameters.
func NewNationalGrid() (*NationalGrid, error) {
	projection, err := NewTransverseMercator(
		AirySemiMajorAxis, AirySemiMinorAxis,
		NationalGridOriginLat*math.Pi/180, NationalGridOriginLon*math.Pi/180,
		NationalGridOriginEasting, NationalGridOriginNorthing,
		NationalGridScaleFactor)
	if err != nil {
		return nil, err
	}
	return &NationalGrid{projection: projection}, nil
}

// ConvertFromGeodetic converts geodetic (latitude and longitude)
// coordinates to a National Grid reference string with precision total
// digits. Positions that project outside the grid fail with
// ErrInvalidPosition.
func (g *NationalGrid) ConvertFromGeodetic(geodeticCoordinates s2.LatLng, precision int) (string, error) {
	return FormatGridRef(g.projection.ConvertFromGeodetic(geodeticCoordinates), precision)
}

// ConvertToGeodetic converts a National Grid reference string to geodetic
// (latitude and longitude) coordinates.
func (g *NationalGrid) ConvertToGeodetic(reference string) (s2.LatLng, error) {
	coords, err := ParseGridRef(reference)
	if err != nil {
		return s2.LatLng{}, err
	}
	return g.projection.ConvertToGeodetic(coords)
}

func isdigit(r byte) bool {
	return r >= '0' && r <= '9'
}

func isalpha(r byte) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z'
}

func toupper(b byte) byte {
	return byte(unicode.ToUpper(rune(b)))
}
