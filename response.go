package sender

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"regexp"
	"strconv"
)

var infoPattern = regexp.MustCompile(
	`^processed: (\d+); failed: (\d+); total: (\d+); seconds spent: (\d+\.\d+)`)

// Response is the server's verdict on one sender data request.
type Response struct {
	// Status is the "response" field, "success" when the request was accepted.
	Status       string
	Processed    uint64
	Failed       uint64
	Total        uint64
	SecondsSpent float64
}

type responseBody struct {
	Response *string `json:"response"`
	Info     *string `json:"info"`
}

// ParseHeader validates a 13 byte frame header and returns the declared body length.
// All eight bytes following the version are read as the length.
func ParseHeader(header []byte) (uint64, error) {
	if len(header) != HeaderSize ||
		!bytes.Equal(header[0:4], headerMagic) ||
		header[4] != ProtocolVersion {
		return 0, &ProtocolError{Reason: ReasonMalformedHeader}
	}
	return binary.LittleEndian.Uint64(header[5:HeaderSize]), nil
}

// ParseBody decodes the JSON response body and its info summary.
func ParseBody(body []byte) (Response, error) {
	var rb responseBody
	if err := json.Unmarshal(body, &rb); err != nil {
		return Response{}, &ProtocolError{Reason: ReasonMalformedBody, Raw: string(body)}
	}
	if rb.Response == nil {
		return Response{}, &ProtocolError{Reason: ReasonMalformedBody, Raw: string(body)}
	}
	if rb.Info == nil {
		return Response{}, &ProtocolError{Reason: ReasonUnparseableInfo}
	}
	return parseInfo(*rb.Response, *rb.Info)
}

func parseInfo(status, info string) (Response, error) {
	m := infoPattern.FindStringSubmatch(info)
	if m == nil {
		return Response{}, &ProtocolError{Reason: ReasonUnparseableInfo, Raw: info}
	}

	var counts [3]uint64
	for i := range counts {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Response{}, &ProtocolError{Reason: ReasonUnparseableInfo, Raw: info}
		}
		counts[i] = n
	}
	spent, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return Response{}, &ProtocolError{Reason: ReasonUnparseableInfo, Raw: info}
	}

	return Response{
		Status:       status,
		Processed:    counts[0],
		Failed:       counts[1],
		Total:        counts[2],
		SecondsSpent: spent,
	}, nil
}
