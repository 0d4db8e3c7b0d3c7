package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"freight-reconciler/core/canon"
	"freight-reconciler/core/reconcile"
)

// Matching keys must be derivable from both the API record and the DB
// snapshot, so each resolver works off fields present on both sides.
// Client invoices have no single reliable identifier and use a layered
// fallback chain instead.

const maxRawKeyLen = 100

// fieldKey keys records by a single field.
func fieldKey(name string) func(reconcile.Record) string {
	return func(r reconcile.Record) string {
		return canon.Safe(r[name])
	}
}

// manifestKey is a composite of the manifest sequence plus its pick and
// shipment identifiers; the sequence alone repeats across branches.
func manifestKey(r reconcile.Record) string {
	return canon.Safe(r["sequence_code"]) + "|" +
		canon.Safe(r["mft_pfs_pck_sequence_code"]) + "|" +
		canon.Safe(r["mft_mfs_number"])
}

// payableKey prefers the installment sequence and falls back to the
// debit's own sequence.
func payableKey(r reconcile.Record) string {
	if v, ok := r["ant_ils_sequence_code"]; ok && v != nil {
		return canon.Safe(v)
	}
	return canon.Safe(r["sequence_code"])
}

// cargoLocationKey prefers the corporation-scoped sequence number.
func cargoLocationKey(r reconcile.Record) string {
	if v, ok := r["corporation_sequence_number"]; ok && v != nil {
		return canon.Safe(v)
	}
	return canon.Safe(r["sequence_number"])
}

// clientInvoiceKey derives a key through a fallback chain: fiscal note
// number, CTe access key, invoice document, billing id, and finally a
// hash over the row's identifying fields. Raw keys longer than
// maxRawKeyLen are replaced by a hash so both sides stay comparable.
func clientInvoiceKey(r reconcile.Record) string {
	nfse, ok := r["fit_nse_number"]
	if !ok {
		nfse = r["nfse_number"]
	}
	if nfse != nil {
		if s := strings.TrimSpace(stringify(nfse)); s != "" {
			return "NFSE-" + s
		}
	}

	if cte := trimmed(r["fit_fhe_cte_key"]); cte != "" {
		return boundedKey(cte)
	}
	if doc := trimmed(r["fit_document"]); doc != "" {
		return boundedKey("INVOICE-" + doc)
	}
	if bill := trimmed(r["fit_billing_id"]); bill != "" {
		return boundedKey("BILLING-" + bill)
	}

	parts := []string{
		"nfse=" + canon.Safe(nfse),
		"cte_number=" + canon.Safe(r["fit_fhe_cte_number"]),
		"cte_key=" + canon.Safe(r["fit_fhe_cte_key"]),
		"cte_issued_at=" + canon.Safe(r["fit_fhe_cte_issued_at"]),
		"cte_status=" + canon.Safe(r["fit_fhe_cte_status"]),
		"document=" + canon.Safe(r["fit_document"]),
		"issue_date=" + canon.Safe(r["fit_ant_issue_date"]),
		"due_date=" + canon.Safe(r["fit_due_date"]),
		"settlement_date=" + canon.Safe(r["fit_settlement_date"]),
		"original_due_date=" + canon.Safe(r["fit_original_due_date"]),
		"invoice_value=" + canon.Safe(r["fit_value"]),
		"freight_value=" + canon.Safe(r["fit_freight_value"]),
		"third_party=" + canon.Safe(r["fit_third_party"]),
		"freight_type=" + canon.Safe(r["fit_freight_type"]),
		"branch=" + canon.Safe(r["fit_branch"]),
		"state=" + canon.Safe(r["fit_state"]),
		"classification=" + canon.Safe(r["fit_classification"]),
		"payer_name=" + canon.Safe(r["fit_payer_name"]),
		"payer_document=" + canon.Safe(r["fit_payer_document"]),
		"sender_name=" + canon.Safe(r["fit_sender_name"]),
		"sender_document=" + canon.Safe(r["fit_sender_document"]),
		"recipient_name=" + canon.Safe(r["fit_recipient_name"]),
		"recipient_document=" + canon.Safe(r["fit_recipient_document"]),
		"seller_name=" + canon.Safe(r["fit_seller_name"]),
		"billing_id=" + canon.Safe(r["fit_billing_id"]),
		"invoice_numbers=" + joinSorted(r["fit_fte_invoices_order_number"]),
		"customer_orders=" + joinSorted(r["invoices_mapping"]),
	}
	return hashKey("CIV-HASH-", strings.Join(parts, "|"))
}

func boundedKey(raw string) string {
	if len(raw) <= maxRawKeyLen {
		return raw
	}
	return hashKey("CIV-KEYHASH-", raw)
}

func hashKey(prefix, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return prefix + hex.EncodeToString(sum[:])
}

func trimmed(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// joinSorted renders a list field as its sorted, non-blank items joined
// with commas, so item order never affects the key.
func joinSorted(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	items := make([]string, 0, len(list))
	for _, item := range list {
		if s := strings.TrimSpace(stringify(item)); s != "" {
			items = append(items, s)
		}
	}
	sort.Strings(items)
	return strings.Join(items, ",")
}
