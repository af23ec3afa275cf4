package util

import "testing"

func TestContainsFold(t *testing.T) {
	needle := Fold("TypeForm")
	if !ContainsFold([]string{"", "My TYPEFORM bot"}, needle) {
		t.Fatal("expected match")
	}
	if ContainsFold([]string{"Jotform", ""}, needle) {
		t.Fatal("unexpected match")
	}
	// ß folds to ss
	if !ContainsFold([]string{"STRASSE"}, Fold("straße")) {
		t.Fatal("expected unicode fold match")
	}
}
