package secrets

import "testing"

func TestBoxRoundTrip(t *testing.T) {
	box, err := NewBox("unit-test-secret")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple", plaintext: "Relativity1"},
		{name: "empty", plaintext: ""},
		{name: "unicode", plaintext: "pädagogik-Ω"},
		{name: "long", plaintext: string(make([]byte, 4096))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := box.Seal(tt.plaintext)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if sealed == tt.plaintext && tt.plaintext != "" {
				t.Fatal("Seal returned plaintext")
			}
			opened, err := box.Open(sealed)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if opened != tt.plaintext {
				t.Errorf("round trip mismatch: got %q", opened)
			}
		})
	}
}

func TestBoxSealIsRandomized(t *testing.T) {
	box, _ := NewBox("unit-test-secret")
	a, _ := box.Seal("same value")
	b, _ := box.Seal("same value")
	if a == b {
		t.Error("two seals of the same value produced identical ciphertexts")
	}
}

func TestBoxCompare(t *testing.T) {
	box, _ := NewBox("unit-test-secret")
	sealed, _ := box.Seal("Manhattan01")

	if !box.Compare(sealed, "Manhattan01") {
		t.Error("Compare rejected matching candidate")
	}
	if box.Compare(sealed, "Manhattan02") {
		t.Error("Compare accepted non-matching candidate")
	}
	if box.Compare("not-base64!!!", "Manhattan01") {
		t.Error("Compare accepted invalid ciphertext")
	}
}

func TestBoxWrongKey(t *testing.T) {
	box1, _ := NewBox("key-one")
	box2, _ := NewBox("key-two")

	sealed, _ := box1.Seal("secret")
	if _, err := box2.Open(sealed); err == nil {
		t.Error("Open with wrong key succeeded")
	}
}

func TestNewBoxEmptySecret(t *testing.T) {
	if _, err := NewBox(""); err == nil {
		t.Error("NewBox accepted empty secret")
	}
}
