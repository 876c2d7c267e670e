package templates

import (
	"context"
	"strings"
	"testing"
)

func TestErrorAlert_EscapesInput(t *testing.T) {
	var b strings.Builder
	err := ErrorAlert(`<script>alert(1)</script>`, "Try again", "VAL001", []FieldIssue{
		{Field: "applicant.email", Message: "must be a valid email address"},
	}).Render(context.Background(), &b)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := b.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("output contains unescaped script tag: %s", out)
	}
	for _, want := range []string{"&lt;script&gt;", "Try again", "VAL001", "applicant.email"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestErrorAlert_OmitsEmptySections(t *testing.T) {
	var b strings.Builder
	if err := ErrorAlert("Company not found", "", "NF001", nil).Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := b.String()
	if strings.Contains(out, "alert-action") || strings.Contains(out, "alert-fields") {
		t.Errorf("unexpected empty sections: %s", out)
	}
}

func TestRegistrationSuccess(t *testing.T) {
	var b strings.Builder
	if err := RegistrationSuccess("Smith & Sons", "abc").Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(b.String(), "Smith &amp; Sons") {
		t.Errorf("company name not escaped: %s", b.String())
	}
}
