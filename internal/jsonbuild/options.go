package jsonbuild

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNonFinite is returned when a tuning field is NaN or ±Infinity.
var ErrNonFinite = errors.New("jsonbuild: value must be finite")

// ErrTooManyStopStrings and ErrStopStringTooLarge guard the Stop field.
var (
	ErrTooManyStopStrings  = errors.New("jsonbuild: stop array exceeds max stop strings")
	ErrStopStringTooLarge  = errors.New("jsonbuild: stop string exceeds max stop bytes")
)

// RequestOptions is the subset of tuning fields a caller may set. A field
// is emitted only if its Has flag is true, in the fixed order: temperature,
// top_p, max_tokens, stop, frequency_penalty, presence_penalty, seed.
type RequestOptions struct {
	Temperature    float64
	HasTemperature bool

	TopP    float64
	HasTopP bool

	MaxTokens    int
	HasMaxTokens bool

	Stop    []string
	HasStop bool

	FrequencyPenalty    float64
	HasFrequencyPenalty bool

	PresencePenalty    float64
	HasPresencePenalty bool

	Seed    int64
	HasSeed bool

	MaxStopStrings int // 0 = unbounded
	MaxStopBytes   int // per stop string, 0 = unbounded
}

// WriteRequestOptions renders the set fields of o as JSON object members
// (no surrounding braces, so the caller can splice the result into a
// larger object), in stable field order, into a fixed-capacity buffer of
// maxOutputBytes (0 = unbounded). It rejects NaN/±Inf, enforces the
// stop-array caps, and fails with ErrOverflow if the rendered size
// exceeds maxOutputBytes.
func WriteRequestOptions(o RequestOptions, maxOutputBytes int) (string, error) {
	w := newCapWriter(maxOutputBytes)
	var werr error
	n := 0
	write := func(s string) {
		if werr != nil {
			return
		}
		if n > 0 {
			if werr = w.WriteString(","); werr != nil {
				return
			}
		}
		if werr = w.WriteString(s); werr != nil {
			return
		}
		n++
	}

	if o.HasTemperature {
		s, err := finiteFloat(o.Temperature)
		if err != nil {
			return "", err
		}
		write(`"temperature":` + s)
	}
	if o.HasTopP {
		s, err := finiteFloat(o.TopP)
		if err != nil {
			return "", err
		}
		write(`"top_p":` + s)
	}
	if o.HasMaxTokens {
		write(fmt.Sprintf(`"max_tokens":%d`, o.MaxTokens))
	}
	if o.HasStop {
		s, err := writeStop(o.Stop, o.MaxStopStrings, o.MaxStopBytes)
		if err != nil {
			return "", err
		}
		write(`"stop":` + s)
	}
	if o.HasFrequencyPenalty {
		s, err := finiteFloat(o.FrequencyPenalty)
		if err != nil {
			return "", err
		}
		write(`"frequency_penalty":` + s)
	}
	if o.HasPresencePenalty {
		s, err := finiteFloat(o.PresencePenalty)
		if err != nil {
			return "", err
		}
		write(`"presence_penalty":` + s)
	}
	if o.HasSeed {
		write(fmt.Sprintf(`"seed":%d`, o.Seed))
	}

	if werr != nil {
		return "", werr
	}
	return string(w.Bytes()), nil
}

func finiteFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", ErrNonFinite
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func writeStop(stop []string, maxStrings, maxBytes int) (string, error) {
	if maxStrings > 0 && len(stop) > maxStrings {
		return "", ErrTooManyStopStrings
	}
	for _, s := range stop {
		if maxBytes > 0 && len(s) > maxBytes {
			return "", ErrStopStringTooLarge
		}
	}
	if len(stop) == 1 {
		return QuoteString(stop[0]), nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range stop {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(QuoteString(s))
	}
	b.WriteByte(']')
	return b.String(), nil
}
