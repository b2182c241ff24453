package persistence

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// CodeSequence generates prefixed, zero padded reference codes such as
// TXC000001. Numbering is scoped by company and branch.
type CodeSequence struct {
	Prefix       string
	NumberLength int
	Column       string
}

// Next returns the code following the highest existing one. Codes outside
// the prefix and digits shape are skipped. It must run in the transaction
// that inserts the row.
func (s CodeSequence) Next(tx *gorm.DB, model any, companyID, branchID *int64) (string, error) {
	query := tx.Model(model).Where(s.Column+" LIKE ?", s.Prefix+"%")
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	} else {
		query = query.Where("company_id IS NULL")
	}
	if branchID != nil {
		query = query.Where("branch_id = ?", *branchID)
	} else {
		query = query.Where("branch_id IS NULL")
	}

	var codes []string
	if err := query.Pluck(s.Column, &codes).Error; err != nil {
		return "", fmt.Errorf("failed to read last %s code: %w", s.Prefix, err)
	}

	last := 0
	for _, code := range codes {
		if n, ok := s.number(code); ok && n > last {
			last = n
		}
	}
	return s.Format(last + 1), nil
}

// number parses the numeric part of code. Codes that are not the prefix
// followed by digits only are not part of the sequence.
func (s CodeSequence) number(code string) (int, bool) {
	digits, ok := strings.CutPrefix(code, s.Prefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders number with the prefix and padding of the sequence
func (s CodeSequence) Format(number int) string {
	return fmt.Sprintf("%s%0*d", s.Prefix, s.NumberLength, number)
}
