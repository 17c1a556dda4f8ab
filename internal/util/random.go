// Package util provides utility functions for the after-hours agent.
package util

import (
	"math/rand"
	"strconv"
)

// Ticket number range. Ticket ids are 6-digit numeric strings.
const (
	ticketNumberMin = 100000
	ticketNumberMax = 999999
)

// GenerateTicketNumber generates a random 6-digit ticket number. The value
// space is only 900,000 ids, so callers must check the result against the
// repository and retry on collision before inserting.
func GenerateTicketNumber() string {
	return strconv.Itoa(ticketNumberMin + rand.Intn(ticketNumberMax-ticketNumberMin+1))
}
