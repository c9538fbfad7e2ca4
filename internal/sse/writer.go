package sse

import "bytes"

// WriteEvent renders a single SSE event into dst. eventType may be empty,
// in which case a bare "data:" event is emitted (scanners treat a missing
// event field as type "message"). It rejects eventType or data containing
// CR or LF with ErrBadInput, and enforces the same line/frame caps Feed
// would enforce when reading the emitted bytes back.
func WriteEvent(dst *bytes.Buffer, limits Limits, eventType string, data []byte) error {
	if bytes.ContainsAny([]byte(eventType), "\r\n") || bytes.ContainsAny(data, "\r\n") {
		return ErrBadInput
	}
	if limits.MaxFrameBytes > 0 && len(data) > limits.MaxFrameBytes {
		return ErrOverflowFrame
	}

	var line bytes.Buffer
	if eventType != "" {
		line.WriteString("event: ")
		line.WriteString(eventType)
		if limits.MaxLineBytes > 0 && line.Len() > limits.MaxLineBytes {
			return ErrOverflowLine
		}
		dst.Write(line.Bytes())
		dst.WriteByte('\n')
	}

	line.Reset()
	line.WriteString("data: ")
	line.Write(data)
	if limits.MaxLineBytes > 0 && line.Len() > limits.MaxLineBytes {
		return ErrOverflowLine
	}
	dst.Write(line.Bytes())
	dst.WriteString("\n\n")
	return nil
}

// WriteKeepalive emits a bare SSE comment line used to hold a connection
// open without signaling an event.
func WriteKeepalive(dst *bytes.Buffer) {
	dst.WriteString(":\n\n")
}
