package bloomfilter

import (
	"bytes"
	"testing"
)

func TestCalculateMAndKAreReasonable(t *testing.T) {
	cases := []struct {
		expectedElements  int
		falsePositiveRate float64
	}{
		{100, 0.01},
		{1000, 0.05},
		{5000, 0.001},
	}
	for _, c := range cases {
		m := CalculateM(c.expectedElements, c.falsePositiveRate)
		k := CalculateK(c.expectedElements, m)
		if m == 0 {
			t.Errorf("expectedElements=%d rate=%v: m=0, want > 0", c.expectedElements, c.falsePositiveRate)
		}
		if k == 0 {
			t.Errorf("expectedElements=%d rate=%v: k=0, want > 0", c.expectedElements, c.falsePositiveRate)
		}
	}
}

func TestFilterAddAndContains(t *testing.T) {
	cases := []struct {
		expectedElements  int
		falsePositiveRate float64
		elements          []string
	}{
		{100, 0.01, []string{"apple", "banana", "cherry"}},
		{200, 0.05, []string{"grape", "kiwi", "lemon"}},
	}

	for _, c := range cases {
		f := New(c.expectedElements, c.falsePositiveRate, 1)
		for _, e := range c.elements {
			f.Add([]byte(e))
		}
		for _, e := range c.elements {
			if !f.Contains([]byte(e)) {
				t.Errorf("element %q was added but not found", e)
			}
		}
	}
}

func TestFilterSerializeRoundTrip(t *testing.T) {
	f := New(100, 0.01, 42)
	for _, e := range []string{"apple", "banana", "cherry"} {
		f.Add([]byte(e))
	}

	data := f.Serialize()
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	for _, e := range []string{"apple", "banana", "cherry"} {
		if !got.Contains([]byte(e)) {
			t.Errorf("deserialized filter lost element %q", e)
		}
	}

	if roundTrip := got.Serialize(); !bytes.Equal(data, roundTrip) {
		t.Errorf("re-serialized bytes differ from original")
	}
}

func TestDeserializeRejectsTruncatedData(t *testing.T) {
	if _, err := Deserialize([]byte{1, 2, 3}); err != ErrInvalidSize {
		t.Fatalf("got %v, want ErrInvalidSize", err)
	}
}

func TestDeserializeRejectsMismatchedBitArrayLength(t *testing.T) {
	f := New(10, 0.01, 7)
	data := f.Serialize()
	// Truncate the trailing bit array so its length no longer matches m.
	truncated := data[:len(data)-1]
	if _, err := Deserialize(truncated); err != ErrInvalidSize {
		t.Fatalf("got %v, want ErrInvalidSize", err)
	}
}
