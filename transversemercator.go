package gridref

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// ErrNoConvergence indicates the inverse-projection latitude iteration did
// not converge within the iteration bound. Positions within the grid's
// legitimate domain always converge; a non-finite or wildly out-of-domain
// northing does not.
var ErrNoConvergence = errors.New("gridref: latitude iteration did not converge")

// convergenceTolerance is the meridional-arc residual, in metres, below
// which the inverse latitude iteration has converged.
const convergenceTolerance = 0.00001

// maxConvergenceIterations bounds the inverse latitude iteration. Grid
// positions converge in a handful of iterations.
const maxConvergenceIterations = 100

// TransverseMercator provides conversions between geodetic coordinates
// (latitude and longitude) and Transverse Mercator projection coordinates
// (easting and northing), using the series expansions published in the
// Ordnance Survey's "A guide to coordinate systems in Great Britain".
type TransverseMercator struct {
	// Ellipsoid parameters
	semiMajorAxis float64
	semiMinorAxis float64

	// Projection parameters
	originLat     float64 // Latitude of true origin in radians
	originLon     float64 // Longitude of true origin in radians
	falseEasting  float64 // Grid easting of the true origin in metres
	falseNorthing float64 // Grid northing of the true origin in metres
	scaleFactor   float64 // Scale factor on the central meridian

	// Derived constants, computed once at construction
	e2      float64 // Eccentricity squared
	scaledA float64 // semiMajorAxis * scaleFactor
	scaledB float64 // semiMinorAxis * scaleFactor

	// Meridional-arc series coefficients in Helmert's n = (a-b)/(a+b)
	arcCa float64
	arcCb float64
	arcCc float64
	arcCd float64
}

// NewTransverseMercator constructs a new TransverseMercator converter.
// Angular arguments are in radians, linear arguments in metres.
func NewTransverseMercator(semiMajorAxis, semiMinorAxis, originLatitude,
	centralMeridian, falseEasting, falseNorthing, scaleFactor float64) (*TransverseMercator, error) {

	if semiMajorAxis <= 0.0 {
		return nil, errors.New("gridref: semi-major axis must be greater than zero")
	}
	invFlattening := semiMajorAxis / (semiMajorAxis - semiMinorAxis)
	if invFlattening < 250 || invFlattening > 350 {
		return nil, errors.New("gridref: inverse ellipsoid flattening out of range")
	}
	if (originLatitude < -math.Pi/2) || (originLatitude > math.Pi/2) {
		return nil, errors.New("gridref: origin latitude out of range")
	}
	if (centralMeridian < -math.Pi) || (centralMeridian > (2 * math.Pi)) {
		return nil, errors.New("gridref: central meridian out of range")
	}

	const minScaleFactor = 0.1
	const maxScaleFactor = 10.0
	if (scaleFactor < minScaleFactor) || (scaleFactor > maxScaleFactor) {
		return nil, errors.New("gridref: scale factor out of range")
	}

	t := &TransverseMercator{
		semiMajorAxis: semiMajorAxis,
		semiMinorAxis: semiMinorAxis,
		originLat:     originLatitude,
		originLon:     centralMeridian,
		falseEasting:  falseEasting,
		falseNorthing: falseNorthing,
		scaleFactor:   scaleFactor,
	}

	if t.originLon > math.Pi {
		t.originLon -= (2 * math.Pi)
	}

	t.e2 = 1 - (semiMinorAxis*semiMinorAxis)/(semiMajorAxis*semiMajorAxis)
	t.scaledA = semiMajorAxis * scaleFactor
	t.scaledB = semiMinorAxis * scaleFactor

	n1 := (semiMajorAxis - semiMinorAxis) / (semiMajorAxis + semiMinorAxis)
	n2 := n1 * n1
	n3 := n2 * n1
	t.arcCa = 1 + n1 + (5.0/4.0)*n2 + (5.0/4.0)*n3
	t.arcCb = 3*n1 + 3*n2 + (21.0/8.0)*n3
	t.arcCc = (15.0/8.0)*n2 + (15.0/8.0)*n3
	t.arcCd = (35.0 / 24.0) * n3

	return t, nil
}

// meridionalArc computes the developed meridian arc, in metres, from the
// latitude of the true origin to the given latitude.
func (t *TransverseMercator) meridionalArc(latitude float64) float64 {
	diff := latitude - t.originLat
	sum := latitude + t.originLat

	return t.scaledB * (t.arcCa*diff -
		t.arcCb*math.Sin(diff)*math.Cos(sum) +
		t.arcCc*math.Sin(2*diff)*math.Cos(2*sum) -
		t.arcCd*math.Sin(3*diff)*math.Cos(3*sum))
}

// ConvertFromGeodetic converts geodetic coordinates to Transverse Mercator
// projection coordinates. The series always produces a result; a position
// far outside the projection's domain of validity simply yields coordinates
// that no grid-reference square covers.
func (t *TransverseMercator) ConvertFromGeodetic(geodeticCoordinates s2.LatLng) GridCoords {
	latitude := geodeticCoordinates.Lat.Radians()
	longitude := geodeticCoordinates.Lng.Radians()

	// Longitude from the central meridian, (-Pi, Pi] equivalent.
	dLon := longitude - t.originLon
	if dLon > math.Pi {
		dLon -= (2 * math.Pi)
	}
	if dLon < -math.Pi {
		dLon += (2 * math.Pi)
	}

	sinLat := math.Sin(latitude)
	cosLat := math.Cos(latitude)
	tanLat := math.Tan(latitude)

	sin2 := sinLat * sinLat
	cos3 := cosLat * cosLat * cosLat
	cos5 := cos3 * cosLat * cosLat
	tan2 := tanLat * tanLat
	tan4 := tan2 * tan2

	// Radii of curvature in the prime vertical (nu) and the meridian
	// (rho), both scaled by the central-meridian scale factor.
	nu := t.scaledA / math.Sqrt(1-t.e2*sin2)
	rho := t.scaledA * (1 - t.e2) / math.Pow(1-t.e2*sin2, 1.5)
	eta2 := nu/rho - 1

	I := t.meridionalArc(latitude) + t.falseNorthing
	II := (nu / 2) * sinLat * cosLat
	III := (nu / 24) * sinLat * cos3 * (5 - tan2 + 9*eta2)
	IIIA := (nu / 720) * sinLat * cos5 * (61 - 58*tan2 + tan4)
	IV := nu * cosLat
	V := (nu / 6) * cos3 * (nu/rho - tan2)
	VI := (nu / 120) * cos5 * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	dLon2 := dLon * dLon
	dLon3 := dLon2 * dLon
	dLon4 := dLon3 * dLon
	dLon5 := dLon4 * dLon
	dLon6 := dLon5 * dLon

	return GridCoords{
		Easting:  t.falseEasting + IV*dLon + V*dLon3 + VI*dLon5,
		Northing: I + II*dLon2 + III*dLon4 + IIIA*dLon6,
	}
}

// ConvertToGeodetic converts Transverse Mercator projection coordinates to
// geodetic coordinates. It fails only when the latitude iteration does not
// converge.
func (t *TransverseMercator) ConvertToGeodetic(mapCoordinates GridCoords) (s2.LatLng, error) {
	easting := mapCoordinates.Easting
	northing := mapCoordinates.Northing

	// Solve N - N0 = M(phi) iteratively for the footpoint latitude. The
	// loop breaks on residual < tolerance, so a NaN residual runs to the
	// iteration bound instead of passing as converged.
	latitude := t.originLat
	M := 0.0
	converged := false
	for i := 0; i < maxConvergenceIterations; i++ {
		latitude += (northing - t.falseNorthing - M) / t.scaledA
		M = t.meridionalArc(latitude)
		if math.Abs(northing-t.falseNorthing-M) < convergenceTolerance {
			converged = true
			break
		}
	}
	if !converged {
		return s2.LatLng{}, fmt.Errorf("%w after %d iterations", ErrNoConvergence, maxConvergenceIterations)
	}

	sinLat := math.Sin(latitude)
	secLat := 1 / math.Cos(latitude)
	tanLat := math.Tan(latitude)

	sin2 := sinLat * sinLat
	tan2 := tanLat * tanLat
	tan4 := tan2 * tan2
	tan6 := tan4 * tan2

	nu := t.scaledA / math.Sqrt(1-t.e2*sin2)
	rho := t.scaledA * (1 - t.e2) / math.Pow(1-t.e2*sin2, 1.5)
	eta2 := nu/rho - 1

	nu3 := nu * nu * nu
	nu5 := nu3 * nu * nu
	nu7 := nu5 * nu * nu

	VII := tanLat / (2 * rho * nu)
	VIII := tanLat / (24 * rho * nu3) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	IX := tanLat / (720 * rho * nu5) * (61 + 90*tan2 + 45*tan4)
	X := secLat / nu
	XI := secLat / (6 * nu3) * (nu/rho + 2*tan2)
	XII := secLat / (120 * nu5) * (5 + 28*tan2 + 24*tan4)
	XIIA := secLat / (5040 * nu7) * (61 + 662*tan2 + 1320*tan4 + 720*tan6)

	dE := easting - t.falseEasting
	dE2 := dE * dE
	dE3 := dE2 * dE
	dE4 := dE3 * dE
	dE5 := dE4 * dE
	dE6 := dE5 * dE
	dE7 := dE6 * dE

	latitude = latitude - VII*dE2 + VIII*dE4 - IX*dE6
	longitude := t.originLon + X*dE - XI*dE3 + XII*dE5 - XIIA*dE7

	return s2.LatLng{Lat: s1.Angle(latitude), Lng: s1.Angle(longitude)}, nil
}
