package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const countryCode = "234"

// NormalizeMSISDN returns the local form of a Nigerian number: country code removed
// and exactly one leading zero. It never fails; unrecognised input is passed through
// with the zero prefix applied, so blank input comes back as "0". Callers that must
// reject blank numbers check the raw value first.
func NormalizeMSISDN(raw string) string {
	msisdn := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(msisdn, "+"+countryCode):
		msisdn = msisdn[len(countryCode)+1:]
	case strings.HasPrefix(msisdn, countryCode):
		msisdn = msisdn[len(countryCode):]
	}

	return "0" + strings.TrimLeft(msisdn, "0")
}

// ParseDate parses a date string in the formats seen in recharge exports
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
		"02/01/2006 15:04:05",
		"02/01/2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"20060102150405",
	}

	for _, format := range formats {
		date, err := time.Parse(format, dateStr)
		if err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseAmount parses a naira amount, tolerating currency symbols and thousands separators
func ParseAmount(amountStr string) (float64, error) {
	amountStr = strings.TrimSpace(amountStr)
	amountStr = strings.ReplaceAll(amountStr, "₦", "")
	amountStr = strings.TrimPrefix(amountStr, "NGN")
	amountStr = strings.TrimPrefix(amountStr, "N")
	amountStr = strings.ReplaceAll(amountStr, ",", "")
	return strconv.ParseFloat(strings.TrimSpace(amountStr), 64)
}

// ParseFlag reads the yes/no style booleans used in CSV exports
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "y":
		return true
	default:
		return false
	}
}
