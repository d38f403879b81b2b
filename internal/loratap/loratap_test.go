package loratap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBinary_LayoutAndLength(t *testing.T) {
	f := &Frame{
		Header: Header{
			ChannelFrequency: 915000000,
			ChannelBandwidth: 1,
			ChannelSF:        7,
			RSSIPacket:       120,
			RSSIMax:          125,
			RSSICurrent:      118,
			SyncWord:         0x34,
		},
		PHY: PHYHeader{
			Length:    4,
			CRCMSN:    0xA,
			HasMACCRC: true,
			CR:        1,
			CRCLSN:    0x5,
		},
		Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xB8, 0x73},
		SNRdB:   7.4,
	}

	buf, err := f.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, buf, 15+3+len(f.Payload))

	assert.Equal(t, byte(0), buf[0])            // version
	assert.Equal(t, byte(0), buf[1])            // padding
	assert.Equal(t, byte(0), buf[2])            // length hi
	assert.Equal(t, byte(15), buf[3])           // length lo
	assert.Equal(t, byte(0x36), buf[4])         // freq hi byte == 915000000>>24
	assert.Equal(t, byte(1), buf[8])            // bandwidth
	assert.Equal(t, byte(7), buf[9])            // sf
	assert.Equal(t, byte(0x34), buf[14])        // sync word
	assert.Equal(t, byte(4), buf[15]) // phy length
	assert.Equal(t, byte(0x5), buf[17]>>4) // crc_lsn

	assert.Equal(t, f.Payload, buf[18:])
}

func TestMarshalBinary_PHYHeaderFields(t *testing.T) {
	f := &Frame{
		PHY: PHYHeader{
			Length:    9,
			CRCMSN:    0x3,
			HasMACCRC: false,
			CR:        4,
			CRCLSN:    0x7,
			Reserved:  0,
		},
	}
	buf, err := f.MarshalBinary()
	require.NoError(t, err)

	byte1 := buf[16]
	assert.Equal(t, byte(0x3), byte1>>4)
	assert.Equal(t, byte(0), (byte1>>3)&1) // has_mac_crc
	assert.Equal(t, byte(4), byte1&0x07)

	byte2 := buf[17]
	assert.Equal(t, byte(0x7), byte2>>4)
}

func TestMarshalBinary_RejectsOversizedCR(t *testing.T) {
	f := &Frame{PHY: PHYHeader{CR: 8}}
	_, err := f.MarshalBinary()
	assert.Error(t, err)
}

func TestRSSIField_RoundtripsPositiveSNR(t *testing.T) {
	field := RSSIField(-40, 10)
	assert.InDelta(t, -40, RSSIFieldToDBm(field, 10), 1.0)
}

func TestRSSIField_UsesQuarterDBWhenSNRNegative(t *testing.T) {
	field := RSSIField(-130, -5)
	assert.InDelta(t, -130, RSSIFieldToDBm(field, -5), 0.5)
}
