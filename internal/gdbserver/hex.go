package gdbserver

import "rvcsim/internal/rsp"

func encodeReg(v uint64, width int, end rsp.Endianness) string {
	return rsp.EncodeHexUint(v, width, end)
}

func decodeReg(s string, end rsp.Endianness) (uint64, error) {
	return rsp.DecodeHexUint(s, end)
}

func encodeBytes(data []byte) string { return rsp.EncodeHexBytes(data) }

func decodeBytes(s string) ([]byte, error) { return rsp.DecodeHexBytes(s) }
