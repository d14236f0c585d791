package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenOrderID builds the gateway-facing order id: PREFIX-YYYYMMDD-HHMMSS-XXXXXXXX.
func GenOrderID(prefix string) string {
	now := time.Now().In(time.Local).Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + now + "-" + strings.ToUpper(u)
}
