package service

import (
	"github.com/google/uuid"
	"github.com/quillsign/quillsign/internal/esign/domain"
)

// ParseDocumentID parses a string to a DocumentID
func ParseDocumentID(s string) (domain.DocumentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return domain.DocumentID{}, err
	}
	return domain.DocumentID(u), nil
}

// ParseSignerID parses a string to a SignerID
func ParseSignerID(s string) (domain.SignerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return domain.SignerID{}, err
	}
	return domain.SignerID(u), nil
}

// ParseFieldID parses a string to a FieldID
func ParseFieldID(s string) (domain.FieldID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return domain.FieldID{}, err
	}
	return domain.FieldID(u), nil
}

// ParseUserID parses a string to a UserID
func ParseUserID(s string) (domain.UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return domain.UserID{}, err
	}
	return domain.UserID(u), nil
}
