package utils

import (
	"fmt"
	"regexp"
)

var applicantIDPattern = regexp.MustCompile(`^[0-9]{11}$`)

// ValidateApplicantID checks that id is an 11-digit national identity number
func ValidateApplicantID(id string) error {
	if !applicantIDPattern.MatchString(id) {
		return fmt.Errorf("applicant id must be 11 digits")
	}
	return nil
}
