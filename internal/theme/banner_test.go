package theme

import (
	"bytes"
	"strings"
	"testing"
)

func TestStartLineCarriesVersion(t *testing.T) {
	var b bytes.Buffer
	PrintStart(&b)
	if b.String() != "[recapbot] starting "+Version+"\n" {
		t.Fatalf("got %q", b.String())
	}
}

func TestBannerNamesBot(t *testing.T) {
	if !strings.Contains(Banner(), "recapbot") {
		t.Fatal("banner missing name")
	}
}
