package wireguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = "" +
	"cFRpdmtleXNlcnZlcnNpZGVwcml2YXRla2V5c2VydmU=\tcHVibGlja2V5c2VydmVyc2lkZXB1YmxpY2tleXNlcnZlcg==\t51820\toff\n" +
	"cGVlcm9uZXB1YmxpY2tleXBlZXJvbmVwdWJsaWNrZXk=\t(none)\t203.0.113.7:51820\t10.13.13.2/32\t1717171717\t4096\t8192\t25\n" +
	"cGVlcnR3b3B1YmxpY2tleXBlZXJ0d29wdWJsaWNrZXk=\t(none)\t(none)\t10.13.13.3/32,10.13.13.4/32\t0\t0\t0\toff\n"

func TestParseDump(t *testing.T) {
	peers, skipped := parseDump(sampleDump)
	assert.Zero(t, skipped)
	require.Len(t, peers, 2)

	one := peers["cGVlcm9uZXB1YmxpY2tleXBlZXJvbmVwdWJsaWNrZXk="]
	assert.Equal(t, "203.0.113.7:51820", one.Endpoint)
	assert.Equal(t, []string{"10.13.13.2/32"}, one.AllowedIPs)
	assert.Equal(t, int64(1717171717), one.LastHandshake)
	assert.Equal(t, int64(4096), one.TransferRx)
	assert.Equal(t, int64(8192), one.TransferTx)
	assert.Equal(t, 25, one.Keepalive)

	two := peers["cGVlcnR3b3B1YmxpY2tleXBlZXJ0d29wdWJsaWNrZXk="]
	assert.Empty(t, two.Endpoint)
	assert.Equal(t, []string{"10.13.13.3/32", "10.13.13.4/32"}, two.AllowedIPs)
	assert.Zero(t, two.Keepalive)
}

func TestParseDumpSkipsMalformedLines(t *testing.T) {
	out := sampleDump +
		"short line only\n" +
		"a\tb\tc\td\tnot-a-number\t0\t0\toff\n"

	peers, skipped := parseDump(out)
	assert.Equal(t, 2, skipped)
	assert.Len(t, peers, 2)
}

func TestParseDumpEmptyOutput(t *testing.T) {
	peers, skipped := parseDump("")
	assert.Zero(t, skipped)
	assert.Empty(t, peers)
}
