package dto

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ParticipantFilter mirrors the admin list query string. List values are comma separated.
type ParticipantFilter struct {
	MarathonIDs        []int64
	MarathonTypes      []string
	Genders            []string
	Cities             []string
	States             []string
	TshirtSizes        []string
	MarathonName       string
	IsPaymentCompleted *bool
}

func ParseParticipantFilter(c *fiber.Ctx) ParticipantFilter {
	f := ParticipantFilter{
		MarathonTypes: splitList(c.Query("marathonType")),
		Genders:       splitList(c.Query("gender")),
		Cities:        splitList(c.Query("city")),
		States:        splitList(c.Query("state")),
		TshirtSizes:   splitList(c.Query("tshirtSize")),
		MarathonName:  strings.TrimSpace(c.Query("marathonName")),
	}
	for _, s := range splitList(c.Query("marathonId")) {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
			f.MarathonIDs = append(f.MarathonIDs, id)
		}
	}
	if v := strings.TrimSpace(c.Query("isPaymentCompleted")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsPaymentCompleted = &b
		}
	}
	return f
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type TshirtSizeCount struct {
	TshirtSize string `json:"tshirt_size"`
	Total      int64  `json:"total"`
}

type PaymentStats struct {
	TotalParticipants   int64  `json:"total_participants"`
	PaidParticipants    int64  `json:"paid_participants"`
	PendingParticipants int64  `json:"pending_participants"`
	RevenueMinor        int64  `json:"revenue_minor"`
	Revenue             string `json:"revenue"`
}

type ExportResult struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	Range         string `json:"range"`
	Rows          int    `json:"rows"`
}
