package checkout

import "testing"

func TestDetectCompletionMarkers(t *testing.T) {
	cases := []struct {
		name   string
		obs    Observation
		marker string
		done   bool
	}{
		{"closed", Observation{Closed: true}, MarkerClosed, true},
		{"success url", Observation{Location: "https://portal.example.com/buybuttons/us0123/Success/"}, MarkerSuccess, true},
		{"cart path", Observation{Location: "https://portal.example.com/buybuttons/us0123/cart/"}, MarkerCartPath, true},
		{"body added", Observation{Location: "https://portal.example.com/buybuttons/us0123/buy/42", BodyText: "Item Added to your cart"}, MarkerBodyText, true},
		{"pending", Observation{Location: "https://portal.example.com/buybuttons/us0123/buy/42", BodyText: "loading"}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			marker, done := DetectCompletion(tc.obs)
			if done != tc.done {
				t.Fatalf("done want %v got %v", tc.done, done)
			}
			if marker != tc.marker {
				t.Fatalf("marker want %q got %q", tc.marker, marker)
			}
		})
	}
}

func TestDetectCompletionSuccessBeforeCartPath(t *testing.T) {
	obs := Observation{Location: "https://portal.example.com/buybuttons/us0123/cart/success"}
	marker, done := DetectCompletion(obs)
	if !done {
		t.Fatalf("expected completion")
	}
	if marker != MarkerSuccess {
		t.Fatalf("marker want %q got %q", MarkerSuccess, marker)
	}
}

func TestAggregateCartURLPrefersConfiguredTenant(t *testing.T) {
	url, err := AggregateCartURL("https://portal.example.com/", "us9999", "https://portal.example.com/buybuttons/us0123/buy/1")
	if err != nil {
		t.Fatalf("aggregate cart url failed: %v", err)
	}
	want := "https://portal.example.com/buybuttons/us9999/cart/"
	if url != want {
		t.Fatalf("cart url want %q got %q", want, url)
	}
}

func TestAggregateCartURLExtractsTenantFromLink(t *testing.T) {
	url, err := AggregateCartURL("https://portal.example.com", "", "https://portal.example.com/BuyButtons/US0123/buy/1")
	if err != nil {
		t.Fatalf("aggregate cart url failed: %v", err)
	}
	want := "https://portal.example.com/buybuttons/us0123/cart/"
	if url != want {
		t.Fatalf("cart url want %q got %q", want, url)
	}
}

func TestAggregateCartURLNoTenant(t *testing.T) {
	if _, err := AggregateCartURL("https://portal.example.com", "", "https://elsewhere.example.com/buy/1"); err == nil {
		t.Fatalf("expected error for link without tenant code")
	}
}

func TestAggregateCartURLDefaultBase(t *testing.T) {
	url, err := AggregateCartURL("", "us0123", "")
	if err != nil {
		t.Fatalf("aggregate cart url failed: %v", err)
	}
	want := "https://portal.veinternational.org/buybuttons/us0123/cart/"
	if url != want {
		t.Fatalf("cart url want %q got %q", want, url)
	}
}
