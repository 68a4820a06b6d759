package domain

import (
	"testing"
)

func fieldWithRule(rule ValidationRule) DocumentField {
	f := NewDocumentField(NewDocumentID(), FieldTypeText, "Amount", false, Geometry{Page: 1, X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05}, nil)
	return f.WithRule(rule)
}

func valuesFor(f DocumentField, value string) map[FieldID]string {
	return map[FieldID]string{f.ID: value}
}

func TestFieldActiveOperators(t *testing.T) {
	ref := NewFieldID()
	cases := []struct {
		name    string
		op      ConditionOperator
		literal string
		values  map[FieldID]string
		want    bool
	}{
		{"equals match", ConditionEquals, "yes", map[FieldID]string{ref: "yes"}, true},
		{"equals mismatch", ConditionEquals, "yes", map[FieldID]string{ref: "no"}, false},
		{"equals missing reference", ConditionEquals, "yes", map[FieldID]string{}, false},
		{"not equals mismatch", ConditionNotEquals, "yes", map[FieldID]string{ref: "no"}, true},
		{"not equals missing reference", ConditionNotEquals, "yes", map[FieldID]string{}, true},
		{"present with value", ConditionPresent, "", map[FieldID]string{ref: "x"}, true},
		{"present empty", ConditionPresent, "", map[FieldID]string{ref: ""}, false},
		{"present missing", ConditionPresent, "", map[FieldID]string{}, false},
		{"absent missing", ConditionAbsent, "", map[FieldID]string{}, true},
		{"absent with value", ConditionAbsent, "", map[FieldID]string{ref: "x"}, false},
		{"unknown operator keeps field active", ConditionOperator("BOGUS"), "", map[FieldID]string{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewDocumentField(NewDocumentID(), FieldTypeText, "Dependent", false, Geometry{Page: 1, X: 0, Y: 0, Width: 0.1, Height: 0.1}, nil)
			f = f.WithConditional(ConditionalLogic{FieldID: ref, Operator: tc.op, Value: tc.literal})
			if got := FieldActive(f, tc.values); got != tc.want {
				t.Fatalf("FieldActive = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFieldWithoutConditionalIsActive(t *testing.T) {
	f := NewDocumentField(NewDocumentID(), FieldTypeText, "Plain", false, Geometry{Page: 1, X: 0, Y: 0, Width: 0.1, Height: 0.1}, nil)
	if !FieldActive(f, nil) {
		t.Fatal("field without conditional logic must be active")
	}
}

func TestValidateFieldRequired(t *testing.T) {
	f := NewDocumentField(NewDocumentID(), FieldTypeText, "Name", true, Geometry{Page: 1, X: 0, Y: 0, Width: 0.1, Height: 0.1}, nil)

	findings := ValidateField(f, map[FieldID]string{})
	if len(findings) != 1 || findings[0].Code != CodeRequired {
		t.Fatalf("expected single REQUIRED finding, got %#v", findings)
	}

	findings = ValidateField(f, valuesFor(f, "   "))
	if len(findings) != 1 || findings[0].Code != CodeRequired {
		t.Fatalf("whitespace-only value must fail required, got %#v", findings)
	}

	findings = ValidateField(f, valuesFor(f, "Alice"))
	if len(findings) != 0 {
		t.Fatalf("expected no findings, got %#v", findings)
	}
}

func TestRequiredRuleKindEnforcesPresence(t *testing.T) {
	// The flag is off; the rule alone must make the field mandatory.
	f := fieldWithRule(ValidationRule{Kind: RuleRequired})

	findings := ValidateField(f, map[FieldID]string{})
	if len(findings) != 1 || findings[0].Code != CodeRequired {
		t.Fatalf("REQUIRED rule with no value must fail, got %#v", findings)
	}

	findings = ValidateField(f, valuesFor(f, "  "))
	if len(findings) != 1 || findings[0].Code != CodeRequired {
		t.Fatalf("REQUIRED rule with whitespace-only value must fail, got %#v", findings)
	}

	if findings := ValidateField(f, valuesFor(f, "filled")); len(findings) != 0 {
		t.Fatalf("expected no findings, got %#v", findings)
	}
}

func TestInactiveRequiredFieldIsExempt(t *testing.T) {
	ref := NewFieldID()
	f := NewDocumentField(NewDocumentID(), FieldTypeText, "Spouse Name", true, Geometry{Page: 1, X: 0, Y: 0, Width: 0.1, Height: 0.1}, nil)
	f = f.WithConditional(ConditionalLogic{FieldID: ref, Operator: ConditionEquals, Value: "married"})

	findings := ValidateField(f, map[FieldID]string{ref: "single"})
	if len(findings) != 0 {
		t.Fatalf("inactive field must not be required, got %#v", findings)
	}
}

func TestValidateFieldRules(t *testing.T) {
	cases := []struct {
		name     string
		rule     ValidationRule
		value    string
		wantCode string
	}{
		{"valid email", ValidationRule{Kind: RuleEmail}, "a@b.co", ""},
		{"invalid email", ValidationRule{Kind: RuleEmail}, "not-an-email", CodeEmail},
		{"numeric in range", ValidationRule{Kind: RuleNumeric, Min: "1", Max: "10"}, "5.5", ""},
		{"numeric below min", ValidationRule{Kind: RuleNumeric, Min: "1"}, "0.99", CodeNumeric},
		{"numeric above max", ValidationRule{Kind: RuleNumeric, Max: "10"}, "10.01", CodeNumeric},
		{"not numeric", ValidationRule{Kind: RuleNumeric}, "abc", CodeNotNumeric},
		{"pattern match", ValidationRule{Kind: RulePattern, Pattern: `^\d{5}$`}, "12345", ""},
		{"pattern mismatch", ValidationRule{Kind: RulePattern, Pattern: `^\d{5}$`}, "1234", CodePattern},
		{"broken pattern", ValidationRule{Kind: RulePattern, Pattern: `([`}, "x", CodeBadPattern},
		{"min length ok", ValidationRule{Kind: RuleMinLength, Length: 3}, "abc", ""},
		{"min length short", ValidationRule{Kind: RuleMinLength, Length: 3}, "ab", CodeMinLength},
		{"max length ok", ValidationRule{Kind: RuleMaxLength, Length: 3}, "abc", ""},
		{"max length long", ValidationRule{Kind: RuleMaxLength, Length: 3}, "abcd", CodeMaxLength},
		{"unknown rule fails closed", ValidationRule{Kind: RuleKind("FANCY")}, "anything", CodeUnknownRule},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := fieldWithRule(tc.rule)
			findings := ValidateField(f, valuesFor(f, tc.value))
			if tc.wantCode == "" {
				if len(findings) != 0 {
					t.Fatalf("expected no findings, got %#v", findings)
				}
				return
			}
			if len(findings) != 1 || findings[0].Code != tc.wantCode {
				t.Fatalf("expected %s, got %#v", tc.wantCode, findings)
			}
		})
	}
}

func TestValidateFieldEmptyOptionalSkipsRule(t *testing.T) {
	f := fieldWithRule(ValidationRule{Kind: RuleEmail})
	findings := ValidateField(f, map[FieldID]string{})
	if len(findings) != 0 {
		t.Fatalf("empty optional value must not run the rule, got %#v", findings)
	}
}

func TestValidateFieldDropdownOptions(t *testing.T) {
	f := NewDocumentField(NewDocumentID(), FieldTypeDropdown, "State", false, Geometry{Page: 1, X: 0, Y: 0, Width: 0.1, Height: 0.1}, nil)
	f.Options = []string{"CA", "NY", "TX"}

	if findings := ValidateField(f, valuesFor(f, "NY")); len(findings) != 0 {
		t.Fatalf("listed option must pass, got %#v", findings)
	}
	findings := ValidateField(f, valuesFor(f, "FL"))
	if len(findings) != 1 || findings[0].Code != CodeBadOption {
		t.Fatalf("unlisted option must fail, got %#v", findings)
	}
}

func TestValidateFieldIdempotent(t *testing.T) {
	f := fieldWithRule(ValidationRule{Kind: RuleNumeric, Min: "10"})
	values := valuesFor(f, "3")
	first := ValidateField(f, values)
	second := ValidateField(f, values)
	if len(first) != len(second) || first[0].Code != second[0].Code {
		t.Fatalf("repeated validation diverged: %#v vs %#v", first, second)
	}
}

func TestValidateSignerFieldsAggregates(t *testing.T) {
	docID := NewDocumentID()
	signerID := NewSignerID()
	otherID := NewSignerID()

	mine := NewDocumentField(docID, FieldTypeText, "Mine", true, Geometry{Page: 1, X: 0, Y: 0, Width: 0.1, Height: 0.1}, &signerID)
	alsoMine := fieldWithRule(ValidationRule{Kind: RuleEmail})
	alsoMine.SignerID = &signerID
	theirs := NewDocumentField(docID, FieldTypeText, "Theirs", true, Geometry{Page: 1, X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1}, &otherID)

	agg := Aggregate{
		Document: Document{ID: docID},
		Fields:   []DocumentField{mine, alsoMine, theirs},
	}
	agg.Fields[1] = agg.Fields[1].WithValue("bogus")

	findings := ValidateSignerFields(&agg, signerID)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings for this signer only, got %#v", findings)
	}
	if !findings.HasBlocking() {
		t.Fatal("error findings must block")
	}
}
