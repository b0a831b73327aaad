package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunForward(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"56.796748704,-5.002281834"})

	require.NoError(t, err)
	require.Equal(t, "NN 16676 71250\n", out.String())
}

func TestRunInverse(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"NN 16676 71250"})

	require.NoError(t, err)
	require.Equal(t, "56.796749 -5.002282\n", out.String())
}

func TestRunMixedInputs(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{
		"NN 16676 71250",
		"56.796748704,-5.002281834",
	})

	require.NoError(t, err)
	require.Equal(t, "56.796749 -5.002282\nNN 16676 71250\n", out.String())
}

func TestRunReadsStandardInput(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("TQ 33602 80559\n\n  NT 27000 73700  \n")
	var out, errOut bytes.Buffer
	err := run(&out, &errOut, in, nil)

	require.NoError(t, err)
	require.Equal(t, "51.507664 -0.074663\n55.950821 -3.169135\n", out.String())
}

func TestRunJSONOutput(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"-json", "56.796748704,-5.002281834"})

	require.NoError(t, err)

	var conv conversion
	require.NoError(t, json.Unmarshal(out.Bytes(), &conv))
	require.Equal(t, "56.796748704,-5.002281834", conv.Input)
	require.Equal(t, "NN 16676 71250", conv.GridRef)
	require.Nil(t, conv.Lat)
	require.Nil(t, conv.Lon)
}

func TestRunJSONOutputInverse(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"-json", "NN 16676 71250"})

	require.NoError(t, err)

	var conv conversion
	require.NoError(t, json.Unmarshal(out.Bytes(), &conv))
	require.Equal(t, "NN 16676 71250", conv.Input)
	require.Empty(t, conv.GridRef)
	require.NotNil(t, conv.Lat)
	require.NotNil(t, conv.Lon)
	require.InDelta(t, 56.796749, *conv.Lat, 1e-5)
	require.InDelta(t, -5.002282, *conv.Lon, 1e-5)
}

func TestRunPrecisionFlag(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"-precision", "4", "56.796748704,-5.002281834"})

	require.NoError(t, err)
	require.Equal(t, "NN 16 71\n", out.String())
}

func TestRunPrecisionFromEnvironment(t *testing.T) {
	t.Setenv("GRIDREF_PRECISION", "2")

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"56.796748704,-5.002281834"})

	require.NoError(t, err)
	require.Equal(t, "NN 1 7\n", out.String())
}

func TestRunReportsFailedConversions(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"ZZ 12345 67890", "NN 16676 71250"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "1 of 2 conversions failed")
	require.Equal(t, "56.796749 -5.002282\n", out.String())
}

func TestRunBadCoordinatePair(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"fifty,-5.0"})

	require.Error(t, err)
	require.Empty(t, out.String())
}

func TestRunUndefinedFlag(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"--no-such-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined")
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	err := run(&out, &errOut, strings.NewReader(""), []string{"-h"})

	require.NoError(t, err)
	require.Contains(t, errOut.String(), "Usage:")
	require.Empty(t, out.String())
}

func TestConvertDetectsDirection(t *testing.T) {
	t.Parallel()

	fwd, err := convert("56.796748704,-5.002281834", 10)
	require.NoError(t, err)
	require.Equal(t, "NN 16676 71250", fwd.GridRef)
	require.Nil(t, fwd.Lat)

	inv, err := convert("NN 16676 71250", 10)
	require.NoError(t, err)
	require.Empty(t, inv.GridRef)
	require.NotNil(t, inv.Lat)
}
