// Package canonical produces a deterministic byte representation of
// structured data. Object keys are sorted lexicographically at every level,
// array order is preserved, and the encoding is whitespace-free JSON. Two
// logically equal structures canonicalize to identical bytes regardless of
// key insertion order, which is the sole basis for digest stability across
// storage engines that may reorder fields.
//
// The supported value kinds are closed: object (map[string]any), array
// ([]any), string, number (Go integer and float types plus json.Number),
// bool, and null. Anything else is rejected with an explicit error rather
// than silently coerced; a digest over an ambiguous encoding is worse than
// no digest at all.
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	dErrors "veritas/pkg/domain-errors"
)

// Canonicalize serializes v into its canonical byte form.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest returns the SHA-256 digest of the canonical form of v,
// lowercase hex encoded.
func Digest(v any) (string, error) {
	b, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func write(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return writeString(buf, val)
	case json.Number:
		buf.WriteString(val.String())
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float32:
		return writeFloat(buf, float64(val))
	case float64:
		return writeFloat(buf, val)
	case map[string]any:
		return writeObject(buf, val)
	case []any:
		return writeArray(buf, val)
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unsupported value kind %T", v)
	}
	return nil
}

// writeFloat holds the fixed number rule: integral values inside the exact
// float64 integer range print without a fraction or exponent; everything
// else prints as the shortest decimal that round-trips. Changing this rule
// re-roots every previously computed digest, so it stays fixed.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return dErrors.New(dErrors.CodeInvalidInput, "non-finite numbers are not canonicalizable")
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	buf.Write(b)
	return nil
}

func writeObject(buf *bytes.Buffer, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := write(buf, m[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeArray(buf *bytes.Buffer, a []any) error {
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := write(buf, v); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
