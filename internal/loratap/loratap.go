// Package loratap implements the LoRaTap v0 wire format: a fixed radio
// metadata header wrapping a PHY header and payload, analogous to the
// radiotap headers pcap tools use for 802.11 captures.
package loratap

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	headerLength    = 15
	phyHeaderLength = 3
	// Version is the only LoRaTap version this package emits.
	Version = 0
)

// Header carries the radio metadata stamped onto every emitted frame.
type Header struct {
	ChannelFrequency uint32 // Hz
	ChannelBandwidth uint8  // units of 125 kHz
	ChannelSF        uint8  // 7..12
	RSSIPacket       uint8
	RSSIMax          uint8
	RSSICurrent      uint8
	SNR              uint8 // round(10*log10(snr_linear)), as a signed byte reinterpreted unsigned
	SyncWord         uint8
}

// PHYHeader mirrors the 3-byte explicit PHY header LoRa transmits, or the
// reconstructed equivalent the frame controller assembles in implicit mode.
type PHYHeader struct {
	Length     uint8
	CRCMSN     uint8 // 4 bits
	HasMACCRC  bool
	CR         uint8 // 3 bits
	CRCLSN     uint8 // 4 bits
	Reserved   uint8 // 4 bits, zero on transmit, ignored on receive
}

// Frame is a fully decoded LoRa PHY frame ready to be wrapped in LoRaTap
// and published to the sink.
type Frame struct {
	Header    Header
	PHY       PHYHeader
	Payload   []byte // length bytes, plus 2 MAC-CRC bytes when HasMACCRC
	SNRdB     float64
	ParityErr bool
}

// MarshalBinary serializes the frame into the big-endian, packed LoRaTap
// wire representation: 15-byte loratap_header, 3-byte phy_header, payload.
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerLength+phyHeaderLength+len(f.Payload))

	buf[0] = Version
	buf[1] = 0 // padding
	binary.BigEndian.PutUint16(buf[2:4], headerLength)
	binary.BigEndian.PutUint32(buf[4:8], f.Header.ChannelFrequency)
	buf[8] = f.Header.ChannelBandwidth
	buf[9] = f.Header.ChannelSF
	buf[10] = f.Header.RSSIPacket
	buf[11] = f.Header.RSSIMax
	buf[12] = f.Header.RSSICurrent
	buf[13] = snrByte(f.SNRdB)
	buf[14] = f.Header.SyncWord

	if f.PHY.CR > 7 {
		return nil, fmt.Errorf("loratap: cr %d does not fit in 3 bits", f.PHY.CR)
	}
	buf[15] = f.PHY.Length
	var hasMACCRC uint8
	if f.PHY.HasMACCRC {
		hasMACCRC = 1
	}
	buf[16] = (f.PHY.CRCMSN&0x0F)<<4 | hasMACCRC<<3 | (f.PHY.CR & 0x07)
	buf[17] = (f.PHY.CRCLSN&0x0F)<<4 | (f.PHY.Reserved & 0x0F)

	copy(buf[headerLength+phyHeaderLength:], f.Payload)
	return buf, nil
}

// snrByte packs a dB SNR value as round(10*log10(snr_linear)) would be
// packed by the reference encoder: the byte simply stores the rounded,
// truncated SNR in dB reinterpreted as an unsigned byte (two's complement
// for negative values), matching the wire convention RSSIField documents.
func snrByte(snrDB float64) byte {
	rounded := math.Round(snrDB)
	if rounded > 127 {
		rounded = 127
	}
	if rounded < -128 {
		rounded = -128
	}
	return byte(int8(rounded))
}

// RSSIField converts a dBm value into the wire RSSI field using the
// receiver's convention: dBm = -139 + field, or dBm = -139 + 0.25*field
// when the given SNR is negative (low-SNR frames use the finer-grained
// quarter-dB encoding).
func RSSIField(dBm float64, snrDB float64) uint8 {
	var field float64
	if snrDB < 0 {
		field = (dBm + 139) / 0.25
	} else {
		field = dBm + 139
	}
	if field < 0 {
		field = 0
	}
	if field > 255 {
		field = 255
	}
	return uint8(math.Round(field))
}

// RSSIFieldToDBm is the inverse of RSSIField, used by tests and by any
// downstream tool that needs to interpret a captured LoRaTap frame.
func RSSIFieldToDBm(field uint8, snrDB float64) float64 {
	if snrDB < 0 {
		return -139 + 0.25*float64(field)
	}
	return -139 + float64(field)
}
