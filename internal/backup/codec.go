// Package backup encodes the ledger collections into a portable text
// artifact and decodes such artifacts back into a snapshot.
//
// The transform is a repeating-key XOR over the JSON document followed by
// base64. That is obfuscation, not encryption: it keeps the file opaque to
// casual inspection but offers no cryptographic confidentiality, and the
// default key is a well-known constant. The Codec interface (plaintext
// snapshot in, opaque string out, and the inverse) is shaped so a real
// AEAD scheme can replace the transform without touching callers.
package backup

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/financeiro-leve/ledger-go/internal/domain"
)

// DefaultKey is the keystream used when no key is configured. It matches
// the key the original exporter shipped with, so artifacts remain
// interchangeable.
const DefaultKey = "financeiro-leve-secret-key-2025"

// FileExtension is the conventional extension for exported artifacts.
const FileExtension = ".fl"

// magic is prepended to exports so future format revisions can be told
// apart. Imports also accept legacy artifacts without it.
const magic = "FLB1:"

// Codec encodes and decodes backup artifacts with a fixed key.
type Codec struct {
	key []byte
}

// NewCodec returns a codec using the given key, or DefaultKey when empty.
func NewCodec(key string) *Codec {
	if key == "" {
		key = DefaultKey
	}
	return &Codec{key: []byte(key)}
}

// Export serializes the snapshot into a portable text artifact.
func (c *Codec) Export(snap domain.Snapshot) (string, error) {
	if snap.Accounts == nil {
		snap.Accounts = []domain.Account{}
	}
	if snap.Cards == nil {
		snap.Cards = []domain.Card{}
	}
	if snap.Transactions == nil {
		snap.Transactions = []domain.Transaction{}
	}

	doc, err := json.Marshal(snap)
	if err != nil {
		return "", &domain.ErrCodec{Reason: "encode document: " + err.Error()}
	}

	return magic + base64.StdEncoding.EncodeToString(c.xor(doc)), nil
}

// Import reverses Export. The artifact must decode to a document carrying
// at least accounts and transactions; cards default to empty when absent.
// Any decode or parse failure is reported without producing a partial
// snapshot, so the caller's store stays untouched on error.
func (c *Codec) Import(artifact string) (domain.Snapshot, error) {
	payload := strings.TrimSpace(artifact)
	payload = strings.TrimPrefix(payload, magic)

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.Snapshot{}, &domain.ErrCodec{Reason: "artifact is not valid base64"}
	}

	doc := c.xor(raw)

	// Pointer slices distinguish "absent" from "present but empty".
	var probe struct {
		Accounts     *[]domain.Account     `json:"accounts"`
		Cards        *[]domain.Card        `json:"cards"`
		Transactions *[]domain.Transaction `json:"transactions"`
	}
	if err := json.Unmarshal(doc, &probe); err != nil {
		return domain.Snapshot{}, &domain.ErrCodec{Reason: "artifact does not decrypt to a valid document"}
	}
	if probe.Accounts == nil {
		return domain.Snapshot{}, &domain.ErrCodec{Reason: "document is missing the accounts collection"}
	}
	if probe.Transactions == nil {
		return domain.Snapshot{}, &domain.ErrCodec{Reason: "document is missing the transactions collection"}
	}

	snap := domain.Snapshot{
		Accounts:     *probe.Accounts,
		Transactions: *probe.Transactions,
		Cards:        []domain.Card{},
	}
	if probe.Cards != nil {
		snap.Cards = *probe.Cards
	}
	return snap, nil
}

// xor combines each byte with the repeating keystream. The operation is
// its own inverse.
func (c *Codec) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}
