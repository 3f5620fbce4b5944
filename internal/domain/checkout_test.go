package domain

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func makeTestSnapshot(lines int) CartSnapshot {
	snapshot := CartSnapshot{}
	for i := 0; i < lines; i++ {
		snapshot.Lines = append(snapshot.Lines, SnapshotLine{
			VariantID:   "var_santal_50ml",
			ProductID:   "prod_santal",
			ProductName: "Santal Eau de Parfum",
			VariantName: "50ml",
			ImageURL:    "https://cdn.example.com/santal-50ml.jpg",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("89.00"),
		})
	}
	return snapshot
}

func TestEncodeCartMetadata_RoundTrip(t *testing.T) {
	md, err := EncodeCartMetadata(makeTestSnapshot(1), "user_123")
	if err != nil {
		t.Fatalf("EncodeCartMetadata() error = %v", err)
	}

	if md[MetadataKeyUserID] != "user_123" {
		t.Errorf("user id = %q, want %q", md[MetadataKeyUserID], "user_123")
	}
	if md[MetadataKeyCartChunks] == "" {
		t.Fatal("chunk count key missing")
	}

	decoded, err := DecodeCartMetadata(md)
	if err != nil {
		t.Fatalf("DecodeCartMetadata() error = %v", err)
	}

	if decoded.Version != CartSnapshotVersion {
		t.Errorf("version = %d, want %d", decoded.Version, CartSnapshotVersion)
	}
	if len(decoded.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(decoded.Lines))
	}

	line := decoded.Lines[0]
	if line.VariantID != "var_santal_50ml" {
		t.Errorf("variant id = %q, want %q", line.VariantID, "var_santal_50ml")
	}
	if line.ProductName != "Santal Eau de Parfum" {
		t.Errorf("product name = %q", line.ProductName)
	}
	if line.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", line.Quantity)
	}
	if !line.UnitPrice.Equal(decimal.RequireFromString("89.00")) {
		t.Errorf("unit price = %s, want 89.00", line.UnitPrice)
	}
}

func TestEncodeCartMetadata_GuestDefault(t *testing.T) {
	md, err := EncodeCartMetadata(makeTestSnapshot(1), "")
	if err != nil {
		t.Fatalf("EncodeCartMetadata() error = %v", err)
	}

	if md[MetadataKeyUserID] != GuestUserID {
		t.Errorf("user id = %q, want %q", md[MetadataKeyUserID], GuestUserID)
	}
}

func TestEncodeCartMetadata_ChunksLargeCarts(t *testing.T) {
	// Ten lines of snapshot JSON will not fit in one 450-char value.
	md, err := EncodeCartMetadata(makeTestSnapshot(10), "user_123")
	if err != nil {
		t.Fatalf("EncodeCartMetadata() error = %v", err)
	}

	if md[MetadataKeyCartChunks] == "1" {
		t.Error("expected payload to span multiple chunks")
	}

	for key, value := range md {
		if strings.HasPrefix(key, "cart_") && key != MetadataKeyCartChunks {
			if len(value) > 500 {
				t.Errorf("chunk %s is %d chars, exceeds gateway value cap", key, len(value))
			}
		}
	}

	decoded, err := DecodeCartMetadata(md)
	if err != nil {
		t.Fatalf("DecodeCartMetadata() error = %v", err)
	}
	if len(decoded.Lines) != 10 {
		t.Errorf("lines = %d, want 10", len(decoded.Lines))
	}
}

func TestEncodeCartMetadata_NeverSplitsRunes(t *testing.T) {
	// Slide a multi-byte product name across the chunk boundary; every chunk
	// must remain valid UTF-8 and the snapshot must survive the round trip.
	for pad := 0; pad < 8; pad++ {
		t.Run(fmt.Sprintf("pad_%d", pad), func(t *testing.T) {
			// The name is long enough that the first chunk boundary always
			// falls inside the two-byte runes; the pad shifts its parity.
			snapshot := makeTestSnapshot(1)
			snapshot.Lines[0].ProductName = strings.Repeat("x", pad) + strings.Repeat("é", 256)

			md, err := EncodeCartMetadata(snapshot, "user_123")
			if err != nil {
				t.Fatalf("EncodeCartMetadata() error = %v", err)
			}

			for key, value := range md {
				if !strings.HasPrefix(key, "cart_") || key == MetadataKeyCartChunks {
					continue
				}
				if !utf8.ValidString(value) {
					t.Errorf("chunk %s is not valid UTF-8", key)
				}
				if len(value) > 500 {
					t.Errorf("chunk %s is %d bytes, exceeds gateway value cap", key, len(value))
				}
			}

			decoded, err := DecodeCartMetadata(md)
			if err != nil {
				t.Fatalf("DecodeCartMetadata() error = %v", err)
			}
			if decoded.Lines[0].ProductName != snapshot.Lines[0].ProductName {
				t.Errorf("product name = %q, want %q", decoded.Lines[0].ProductName, snapshot.Lines[0].ProductName)
			}
		})
	}
}

func TestEncodeCartMetadata_TooLarge(t *testing.T) {
	_, err := EncodeCartMetadata(makeTestSnapshot(100), "user_123")
	if err != ErrCartTooLarge {
		t.Errorf("error = %v, want ErrCartTooLarge", err)
	}
}

func TestDecodeCartMetadata_Malformed(t *testing.T) {
	valid, err := EncodeCartMetadata(makeTestSnapshot(1), "user_123")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		md   map[string]string
	}{
		{
			name: "missing chunk count",
			md:   map[string]string{"cart_0": valid["cart_0"]},
		},
		{
			name: "malformed chunk count",
			md:   map[string]string{MetadataKeyCartChunks: "zero"},
		},
		{
			name: "missing chunk",
			md:   map[string]string{MetadataKeyCartChunks: "2", "cart_0": valid["cart_0"]},
		},
		{
			name: "unreadable payload",
			md:   map[string]string{MetadataKeyCartChunks: "1", "cart_0": "{not json"},
		},
		{
			name: "wrong version",
			md:   map[string]string{MetadataKeyCartChunks: "1", "cart_0": `{"v":99,"lines":[{"variant_id":"x","qty":1,"unit_price":"1.00"}]}`},
		},
		{
			name: "no lines",
			md:   map[string]string{MetadataKeyCartChunks: "1", "cart_0": `{"v":1,"lines":[]}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCartMetadata(tt.md); err == nil {
				t.Error("expected decode error")
			} else if ErrorCode(err) != EINVALID {
				t.Errorf("error code = %q, want %q", ErrorCode(err), EINVALID)
			}
		})
	}
}

func TestMetadataUserID(t *testing.T) {
	if got := MetadataUserID(map[string]string{MetadataKeyUserID: "user_42"}); got != "user_42" {
		t.Errorf("MetadataUserID() = %q, want %q", got, "user_42")
	}
	if got := MetadataUserID(map[string]string{}); got != GuestUserID {
		t.Errorf("MetadataUserID() = %q, want %q", got, GuestUserID)
	}
}

func TestPriceBreakdown_TotalCents(t *testing.T) {
	tests := []struct {
		total string
		want  int64
	}{
		{"21.80", 2180},
		{"21.805", 2181},
		{"21.8049", 2180},
		{"0.00", 0},
	}
	for _, tt := range tests {
		b := PriceBreakdown{Total: decimal.RequireFromString(tt.total)}
		if got := b.TotalCents(); got != tt.want {
			t.Errorf("TotalCents(%s) = %d, want %d", tt.total, got, tt.want)
		}
	}
}
