package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// CartLineRequest is one line of a client-submitted cart. Only the variant id
// and quantity are trusted; pricing is always resolved server-side.
type CartLineRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int32  `json:"quantity" validate:"required,min=1"`
}

// PriceBreakdown is the server-computed pricing for a cart. Amounts are
// decimals with two-digit scale; conversion to gateway cents happens at the
// billing boundary only.
type PriceBreakdown struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
	Currency  string
}

// TotalCents returns the grand total in minor units for the payment gateway.
// The total is rounded to two places first so sub-cent residue is never
// silently truncated.
func (b PriceBreakdown) TotalCents() int64 {
	return b.Total.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// CreatePaymentSessionRequest carries a cart and the identity it belongs to.
// UserID is an opaque identifier from the caller; empty means guest.
type CreatePaymentSessionRequest struct {
	Lines  []CartLineRequest
	UserID string
}

// PaymentSession is the result of pricing a cart and opening a payment
// intent with the gateway for its total.
type PaymentSession struct {
	PaymentIntentID string
	ClientSecret    string
	Breakdown       PriceBreakdown
}

// CheckoutService prices carts and opens payment sessions.
type CheckoutService interface {
	CreatePaymentSession(ctx context.Context, req CreatePaymentSessionRequest) (*PaymentSession, error)
}

// Checkout-related domain errors.
var (
	ErrEmptyCart = &Error{
		Code:    EINVALID,
		Message: "Cannot create a payment session for an empty cart",
	}

	// ErrCartTooLarge indicates the cart snapshot exceeds the metadata size limit.
	ErrCartTooLarge = &Error{
		Code:    EINVALID,
		Message: "Cart has too many lines to check out in a single payment",
	}
)

// =============================================================================
// Cart snapshot metadata
// =============================================================================
//
// The cart snapshot rides on the payment intent as gateway metadata so the
// settlement path can rebuild order line items without touching the catalog.
// Stripe caps metadata values at 500 characters and the whole map at roughly
// 8KB, so the JSON payload is split across numbered cart_N keys with a chunk
// count alongside.

const (
	// CartSnapshotVersion is the current snapshot schema version.
	CartSnapshotVersion = 1

	// MetadataKeyUserID holds the purchaser's opaque user id, or "guest".
	MetadataKeyUserID = "user_id"

	// MetadataKeyCartChunks holds the number of cart_N chunk keys.
	MetadataKeyCartChunks = "cart_chunks"

	// metadataChunkSize keeps each chunk under Stripe's 500-char value cap.
	metadataChunkSize = 450

	// maxSnapshotBytes bounds the serialized snapshot, leaving headroom for
	// the user id and chunk count keys inside Stripe's metadata limit.
	maxSnapshotBytes = 7 * 1024
)

// GuestUserID is recorded when no authenticated user is attached to a session.
const GuestUserID = "guest"

// CartSnapshot is the versioned payload embedded in payment session metadata.
type CartSnapshot struct {
	Version int            `json:"v"`
	Lines   []SnapshotLine `json:"lines"`
}

// SnapshotLine captures everything the settlement path needs to rebuild one
// order line item at the prices and names in effect at purchase time.
type SnapshotLine struct {
	VariantID   string          `json:"variant_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name"`
	ImageURL    string          `json:"image_url,omitempty"`
	Quantity    int32           `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// EncodeCartMetadata serializes a snapshot into gateway metadata keys.
// Returns ErrCartTooLarge when the payload would exceed the metadata size limit.
func EncodeCartMetadata(snapshot CartSnapshot, userID string) (map[string]string, error) {
	snapshot.Version = CartSnapshotVersion

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, Internal(err, "checkout.encode_metadata", "failed to serialize cart snapshot")
	}
	if len(payload) > maxSnapshotBytes {
		return nil, ErrCartTooLarge
	}

	if userID == "" {
		userID = GuestUserID
	}

	md := make(map[string]string)
	md[MetadataKeyUserID] = userID

	chunks := 0
	for off := 0; off < len(payload); {
		end := off + metadataChunkSize
		if end >= len(payload) {
			end = len(payload)
		} else {
			// Stripe stores metadata values as unicode strings, so a chunk
			// must never end mid-rune. Back up to the nearest rune start.
			for end > off && !utf8.RuneStart(payload[end]) {
				end--
			}
		}
		md[fmt.Sprintf("cart_%d", chunks)] = string(payload[off:end])
		chunks++
		off = end
	}
	md[MetadataKeyCartChunks] = strconv.Itoa(chunks)

	return md, nil
}

// DecodeCartMetadata reassembles and parses a snapshot from gateway metadata.
func DecodeCartMetadata(md map[string]string) (*CartSnapshot, error) {
	const op = "checkout.decode_metadata"

	raw, ok := md[MetadataKeyCartChunks]
	if !ok {
		return nil, Invalid(op, "payment session metadata is missing the cart snapshot")
	}
	chunks, err := strconv.Atoi(raw)
	if err != nil || chunks < 1 {
		return nil, Invalid(op, "payment session metadata has a malformed chunk count")
	}

	var payload []byte
	for i := 0; i < chunks; i++ {
		chunk, ok := md[fmt.Sprintf("cart_%d", i)]
		if !ok {
			return nil, Invalid(op, fmt.Sprintf("payment session metadata is missing chunk %d of %d", i, chunks))
		}
		payload = append(payload, chunk...)
	}

	var snapshot CartSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, WrapError(err, EINVALID, op, "payment session metadata holds an unreadable cart snapshot")
	}
	if snapshot.Version != CartSnapshotVersion {
		return nil, Invalid(op, fmt.Sprintf("unsupported cart snapshot version %d", snapshot.Version))
	}
	if len(snapshot.Lines) == 0 {
		return nil, Invalid(op, "cart snapshot has no lines")
	}

	return &snapshot, nil
}

// MetadataUserID extracts the purchaser id from gateway metadata,
// defaulting to guest when absent.
func MetadataUserID(md map[string]string) string {
	if id, ok := md[MetadataKeyUserID]; ok && id != "" {
		return id
	}
	return GuestUserID
}
