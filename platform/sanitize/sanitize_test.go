package sanitize

import "testing"

func TestStripHTMLRemovesEncodedTags(t *testing.T) {
	in := `Instalar <b>dos</b> equipos &lt;script&gt;alert(1)&lt;/script&gt;`
	if got := StripHTML(in); got != "Instalar dos equipos alert(1)" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTextKeepsLineBreaks(t *testing.T) {
	if got := Text("  primera   línea \n\n segunda\t\tlínea "); got != "primera línea\n\nsegunda línea" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestLineCollapsesWhitespace(t *testing.T) {
	if got := Line(" Hotel \n Costa   Azul "); got != "Hotel Costa Azul" {
		t.Fatalf("unexpected %q", got)
	}
}
