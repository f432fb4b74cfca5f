package geodata

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEWKB_RoundTripMultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{
		orb.Bound{Min: orb.Point{-90, 25}, Max: orb.Point{-85, 30}}.ToPolygon(),
		orb.Bound{Min: orb.Point{-80, 25}, Max: orb.Point{-75, 30}}.ToPolygon(),
	}
	data, err := EncodeEWKB(mp)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	g, err := DecodeEWKB(data)
	require.NoError(t, err)
	assert.Equal(t, mp, g)
}

func TestEWKB_PolygonBecomesMultiPolygon(t *testing.T) {
	poly := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}.ToPolygon()
	data, err := EncodeEWKB(poly)
	require.NoError(t, err)

	g, err := DecodeEWKB(data)
	require.NoError(t, err)
	assert.Equal(t, orb.MultiPolygon{poly}, g)
}

func TestEWKB_Point(t *testing.T) {
	data, err := EncodeEWKB(orb.Point{-84.39, 33.75})
	require.NoError(t, err)
	g, err := DecodeEWKB(data)
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-84.39, 33.75}, g)
}

func TestEWKB_Empty(t *testing.T) {
	data, err := EncodeEWKB(nil)
	assert.NoError(t, err)
	assert.Nil(t, data)

	g, err := DecodeEWKB(nil)
	assert.NoError(t, err)
	assert.Nil(t, g)
}

func TestEWKB_Unsupported(t *testing.T) {
	_, err := EncodeEWKB(orb.LineString{{0, 0}, {1, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported geometry")

	_, err = DecodeEWKB([]byte{0x01, 0x02})
	require.Error(t, err)
}
