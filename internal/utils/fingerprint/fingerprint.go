// Package fingerprint computes the content hash that serves as a
// transaction's semantic identity for duplicate detection.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Input carries the identity-bearing fields of a transaction. All values are
// raw as ingested; canonicalization happens here. Notes must be the cleaned
// value, after recipient extraction. Payment method and external payment
// identifiers are deliberately absent: the same purchase arriving via two
// ingestion paths that disagree on method metadata must still collide.
type Input struct {
	BusinessName string
	PaymentDate  string
	Amount       string
	Currency     string
	Notes        string
}

// Generator produces deterministic transaction fingerprints.
type Generator struct {
	baseCurrency string
}

// NewGenerator returns a Generator that substitutes baseCurrency when a
// record carries no currency code.
func NewGenerator(baseCurrency string) *Generator {
	if baseCurrency == "" {
		baseCurrency = "ILS"
	}
	return &Generator{baseCurrency: strings.ToUpper(baseCurrency)}
}

// Generate returns the fingerprint for in. It never fails: malformed dates
// hash as an empty string, malformed amounts as zero, and an unexpected
// internal error falls back to a deterministic partial hash. The fallback is
// deliberately not timestamp-based; a unique-per-call fallback would make
// every errored record collide-free and silently bypass deduplication.
func (g *Generator) Generate(in Input) (fp string) {
	defer func() {
		if r := recover(); r != nil {
			fp = fallback(in.BusinessName, fmt.Errorf("%v", r))
		}
	}()

	payload := canonicalJSON(
		canonicalAmount(in.Amount),
		strings.ToLower(strings.TrimSpace(in.BusinessName)),
		canonicalCurrency(in.Currency, g.baseCurrency),
		strings.TrimSpace(in.Notes),
		canonicalDate(in.PaymentDate),
	)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// BaseCurrency returns the currency substituted for records that carry none.
func (g *Generator) BaseCurrency() string {
	return g.baseCurrency
}

// dateLayouts are the formats ingestion adapters are known to emit.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate parses a raw payment date in any of the supported layouts. The
// import engine reuses it to derive period buckets, so both stay in lockstep
// on what counts as a valid date.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// canonicalDate reduces a raw date to "YYYY-MM-DD", or "" when it does not
// parse. An un-dateable record must hash consistently with other un-dateable
// records rather than crash the batch.
func canonicalDate(raw string) string {
	t, ok := ParseDate(raw)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// canonicalAmount coerces a raw amount to a number rounded to two decimals.
// NaN and infinities become 0: NaN in particular would make every malformed
// record hash uniquely and bypass dedup.
func canonicalAmount(raw string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	return math.Round(amount*100) / 100
}

func canonicalCurrency(raw, baseCurrency string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return baseCurrency
	}
	return raw
}

// canonicalJSON serializes the five canonical fields with keys in sorted
// order and no HTML escaping, byte-compatible with records hashed by earlier
// versions of the importer.
func canonicalJSON(amount float64, businessName, currency, notes, paymentDate string) string {
	var b strings.Builder
	b.WriteString(`{"amount":`)
	b.WriteString(formatAmount(amount))
	b.WriteString(`,"business_name":`)
	b.WriteString(jsonString(businessName))
	b.WriteString(`,"currency":`)
	b.WriteString(jsonString(currency))
	b.WriteString(`,"notes":`)
	b.WriteString(jsonString(notes))
	b.WriteString(`,"payment_date":`)
	b.WriteString(jsonString(paymentDate))
	b.WriteString("}")
	return b.String()
}

// formatAmount uses the shortest representation ("50", "-33.33"), the same
// output a double-precision JSON encoder produces.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func jsonString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		panic(err)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// fallback hashes whatever identity data is available plus an error marker.
// Two records failing the same way produce the same fingerprint, so dedup
// still applies to them.
func fallback(businessName string, err error) string {
	payload := `{"business_name":` + jsonString(businessName) +
		`,"error":` + jsonString(err.Error()) + "}"
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}
