package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation error codes
const (
	CodeRequired    = "REQUIRED"
	CodeEmail       = "INVALID_EMAIL"
	CodeNumeric     = "OUT_OF_RANGE"
	CodeNotNumeric  = "NOT_NUMERIC"
	CodePattern     = "PATTERN_MISMATCH"
	CodeBadPattern  = "INVALID_PATTERN"
	CodeMinLength   = "TOO_SHORT"
	CodeMaxLength   = "TOO_LONG"
	CodeUnknownRule = "UNKNOWN_RULE"
	CodeBadOption   = "INVALID_OPTION"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// FieldActive evaluates a field's conditional logic against the document's
// current value set. A field without conditional logic is always active.
// The referenced field's value is looked up by ID; a missing value means
// the reference is absent.
func FieldActive(field DocumentField, values map[FieldID]string) bool {
	logic := field.Conditional
	if logic == nil {
		return true
	}
	value, present := values[logic.FieldID]
	switch logic.Operator {
	case ConditionEquals:
		return present && value == logic.Value
	case ConditionNotEquals:
		return !present || value != logic.Value
	case ConditionPresent:
		return present && value != ""
	case ConditionAbsent:
		return !present || value == ""
	default:
		// Unknown operators deactivate nothing; the field stays visible
		// so its own rule still applies.
		return true
	}
}

// ValidateField checks a single field's value against its validation rule,
// given the full current value set of the document. Inactive fields are
// exempt from required-ness regardless of their own flag. The check is pure
// and idempotent: identical input always yields identical findings.
func ValidateField(field DocumentField, values map[FieldID]string) FieldValidationErrors {
	if !FieldActive(field, values) {
		return nil
	}

	value := ""
	if v, ok := values[field.ID]; ok {
		value = v
	}

	var findings FieldValidationErrors

	// A REQUIRED rule makes the field mandatory the same way the flag does.
	required := field.Required || (field.Rule != nil && field.Rule.Kind == RuleRequired)
	if required && strings.TrimSpace(value) == "" {
		findings = append(findings, FieldValidationError{
			FieldID:  field.ID,
			Code:     CodeRequired,
			Message:  fmt.Sprintf("%s is required", fieldLabel(field)),
			Severity: SeverityError,
		})
		// An empty required value fails on its own; the rule check below
		// would only duplicate the finding.
		return findings
	}

	if value == "" {
		return findings
	}

	if field.Type == FieldTypeDropdown && len(field.Options) > 0 {
		if !containsOption(field.Options, value) {
			findings = append(findings, FieldValidationError{
				FieldID:  field.ID,
				Code:     CodeBadOption,
				Message:  fmt.Sprintf("%s must be one of the listed options", fieldLabel(field)),
				Severity: SeverityError,
			})
		}
	}

	if field.Rule != nil {
		findings = append(findings, checkRule(field, *field.Rule, value)...)
	}

	return findings
}

// checkRule applies one validation rule to a non-empty value.
// Unknown rule kinds fail closed.
func checkRule(field DocumentField, rule ValidationRule, value string) FieldValidationErrors {
	switch rule.Kind {
	case RuleRequired:
		// Non-empty by the time we get here; nothing further to check.
		return nil

	case RuleEmail:
		if !emailPattern.MatchString(value) {
			return single(field, CodeEmail, "%s must be a valid email address", fieldLabel(field))
		}
		return nil

	case RuleNumeric:
		n, err := decimal.NewFromString(value)
		if err != nil {
			return single(field, CodeNotNumeric, "%s must be numeric", fieldLabel(field))
		}
		if rule.Min != "" {
			min, err := decimal.NewFromString(rule.Min)
			if err != nil {
				return single(field, CodeUnknownRule, "%s has an invalid numeric bound", fieldLabel(field))
			}
			if n.LessThan(min) {
				return single(field, CodeNumeric, "%s must be at least %s", fieldLabel(field), rule.Min)
			}
		}
		if rule.Max != "" {
			max, err := decimal.NewFromString(rule.Max)
			if err != nil {
				return single(field, CodeUnknownRule, "%s has an invalid numeric bound", fieldLabel(field))
			}
			if n.GreaterThan(max) {
				return single(field, CodeNumeric, "%s must be at most %s", fieldLabel(field), rule.Max)
			}
		}
		return nil

	case RulePattern:
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return single(field, CodeBadPattern, "%s has an invalid pattern rule", fieldLabel(field))
		}
		if !re.MatchString(value) {
			return single(field, CodePattern, "%s does not match the required format", fieldLabel(field))
		}
		return nil

	case RuleMinLength:
		if utf8.RuneCountInString(value) < rule.Length {
			return single(field, CodeMinLength, "%s must be at least %d characters", fieldLabel(field), rule.Length)
		}
		return nil

	case RuleMaxLength:
		if utf8.RuneCountInString(value) > rule.Length {
			return single(field, CodeMaxLength, "%s must be at most %d characters", fieldLabel(field), rule.Length)
		}
		return nil

	default:
		return single(field, CodeUnknownRule, "%s has an unsupported validation rule %q", fieldLabel(field), rule.Kind)
	}
}

// ValidateSignerFields runs the validation engine over every field assigned
// to the given signer and aggregates the findings. Warnings are included
// but only error-severity findings block completion.
func ValidateSignerFields(a *Aggregate, signerID SignerID) FieldValidationErrors {
	values := a.FieldValues()
	var findings FieldValidationErrors
	for _, field := range a.FieldsForSigner(signerID) {
		findings = append(findings, ValidateField(field, values)...)
	}
	return findings
}

func single(field DocumentField, code, format string, args ...interface{}) FieldValidationErrors {
	return FieldValidationErrors{{
		FieldID:  field.ID,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	}}
}

func fieldLabel(field DocumentField) string {
	if field.Label != "" {
		return field.Label
	}
	return "field " + field.ID.String()
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
