package records

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/roadscan/internal/domain"
)

// Format is an export encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat accepts "json" or "msgpack", case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want json or msgpack)", s)
	}
}

// Export writes recs to w. Ciphertext is exported as stored; nothing is decrypted.
func Export(w io.Writer, recs []domain.EncryptedRecord, format Format) error {
	if recs == nil {
		recs = []domain.EncryptedRecord{}
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("failed to encode records as json: %w", err)
		}
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.UseCompactInts(true)
		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("failed to encode records as msgpack: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}
