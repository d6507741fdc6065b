package pktline

// ParseLength parses a four digit hexadecimal pkt-line length prefix from b.
// The returned value is the raw encoded length: 0, 1 or 2 for a flush-pkt,
// delim-pkt or response-end-pkt respectively, and the full pkt-line length
// (including the four byte prefix) for a data pkt-line. Callers subtract
// lenSize from the latter to get the payload length.
func ParseLength(b []byte) (int, error) {
	n, err := hexDecode(b)
	if err != nil {
		return 0, err
	}

	switch {
	case n == 0, n == 1, n == 2:
		return n, nil
	case n == 3:
		return 0, ErrInvalidPktLen
	case n > MaxPacketSize:
		return 0, ErrInvalidPktLen
	default:
		return n, nil
	}
}
