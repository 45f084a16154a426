package catalog

import (
	"strings"
	"testing"
)

const sampleCSV = `Product Name,Category,Buy Button Link,Final Price
"Alpine Bottle, 32oz",Bottles,https://portal.example.com/buybuttons/us0123/buy/1,"$1,234.50"
Hydro Mix,Supplements,N/A,$9.99
Trail Pack,Bundles,https://portal.example.com/buybuttons/us0123/buy/3,
Summit Bottle,Bottles,https://portal.example.com/buybuttons/us0123/buy/4,$25
`

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count want 3 got %d", len(records))
	}

	if records[0].Name != "Alpine Bottle, 32oz" {
		t.Fatalf("quoted name want %q got %q", "Alpine Bottle, 32oz", records[0].Name)
	}
	if got := records[0].Price.String(); got != "1234.50" {
		t.Fatalf("price want 1234.50 got %s", got)
	}
	if got := records[1].Price.String(); got != "0.00" {
		t.Fatalf("empty price want 0.00 got %s", got)
	}
	if got := records[2].Price.String(); got != "25.00" {
		t.Fatalf("price want 25.00 got %s", got)
	}

	for _, rec := range records {
		if rec.Link == "" || rec.Link == "N/A" {
			t.Fatalf("unexpected link %q", rec.Link)
		}
	}
}

func TestParseCSVHeaderVariants(t *testing.T) {
	csv := "product name,buy button links,Unit Price\nBottle,https://portal.example.com/buy/1,$3.00\n"
	records, err := ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count want 1 got %d", len(records))
	}
	if got := records[0].Price.String(); got != "3.00" {
		t.Fatalf("price want 3.00 got %s", got)
	}
}

func TestParseCSVMissingLinkColumn(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("Product Name,Price\nBottle,$3\n")); err == nil {
		t.Fatalf("expected error for missing link column")
	}
}
