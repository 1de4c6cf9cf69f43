package media

import "testing"

func TestTransformedURL(t *testing.T) {
	in := "https://res.cloudinary.com/demo/image/upload/v1712/portfolio/shot.jpg"

	got := transformedURL(in, "c_limit,w_400,q_auto")
	want := "https://res.cloudinary.com/demo/image/upload/c_limit,w_400,q_auto/v1712/portfolio/shot.jpg"

	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestTransformedURL_NoMarker(t *testing.T) {
	in := "https://example.com/something.jpg"

	if got := transformedURL(in, "c_limit,w_400"); got != in {
		t.Fatalf("expected passthrough, got %s", got)
	}
}
